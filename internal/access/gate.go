package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/fishda/fishda/internal/platform/httpx"
	"github.com/fishda/fishda/internal/shared"
)

// Account is the slice of a user record the gate needs for reconciliation.
type Account struct {
	Role   string
	Status string
}

// ErrAccountNotFound is returned by a UserDirectory when no record exists.
var ErrAccountNotFound = errors.New("access: account not found")

// UserDirectory resolves the server-of-record role and status for a user.
type UserDirectory interface {
	FindAccount(ctx context.Context, userID string) (Account, error)
}

// Gate decides on every request whether the current session may proceed,
// redirecting page loads and rejecting API calls otherwise. Every failure
// path fails closed.
type Gate struct {
	directory UserDirectory
	sessions  *shared.SessionManager
	logger    *slog.Logger
	accounts  *gocache.Cache
}

// NewGate constructs a Gate. Account lookups are cached briefly so the
// reconciliation check does not hit the store on every asset request.
func NewGate(directory UserDirectory, sessions *shared.SessionManager, logger *slog.Logger) *Gate {
	return &Gate{
		directory: directory,
		sessions:  sessions,
		logger:    logger,
		accounts:  gocache.New(30*time.Second, time.Minute),
	}
}

// Middleware enforces the page-access matrix and session reconciliation.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if IsPublicPath(path) {
			next.ServeHTTP(w, r)
			return
		}

		sess := shared.SessionFromContext(r.Context())
		if sess == nil || (!sess.IsAuthenticated() && !sess.IsGuest()) {
			g.deny(w, r, PageLogin, http.StatusUnauthorized)
			return
		}

		if sess.IsGuest() {
			role, ok := ParseRole(sess.Role())
			if !ok || role != RoleGuest {
				// Guest flag and role disagree; the session is malformed.
				g.sessions.Destroy(sess)
				g.deny(w, r, PageLogin, http.StatusUnauthorized)
				return
			}
			g.authorize(w, r, next, RoleGuest)
			return
		}

		role, ok := g.reconcile(r.Context(), sess)
		if !ok {
			g.sessions.Destroy(sess)
			g.deny(w, r, PageLogin, http.StatusUnauthorized)
			return
		}
		g.authorize(w, r, next, role)
	})
}

// RequireCapability guards API routes with a capability check against the
// resolved role. It composes with Middleware, which has already vetted the
// session.
func (g *Gate) RequireCapability(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := g.CurrentRole(r.Context())
			if !HasCapability(role, name) {
				httpx.RespondError(w, fmt.Errorf("missing capability %s: %w", name, httpx.ErrForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentRole resolves the effective role for the request context following
// the precedence guest flag > live record > cached session role > guest.
func (g *Gate) CurrentRole(ctx context.Context) Role {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		return RoleGuest
	}
	if sess.IsGuest() {
		return RoleGuest
	}
	if !sess.IsAuthenticated() {
		return RoleGuest
	}
	if role, ok := g.reconcile(ctx, sess); ok {
		return role
	}
	return RoleGuest
}

// reconcile checks a non-guest session against the user store. It returns the
// effective role, or ok=false when the account is gone or no longer active.
// Lookup failures fall back to the role cached on the session so a transient
// store outage does not log everyone out.
func (g *Gate) reconcile(ctx context.Context, sess *shared.Session) (Role, bool) {
	userID := sess.User()
	account, err := g.lookupAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			g.logger.Warn("session references missing account", slog.String("user_id", userID))
			return RoleGuest, false
		}
		g.logger.Error("account lookup failed, using cached role", slog.String("user_id", userID), slog.Any("error", err))
		return g.sessionRole(sess), true
	}
	if account.Status != "active" {
		g.logger.Warn("session for inactive account rejected",
			slog.String("user_id", userID),
			slog.String("status", account.Status),
		)
		return RoleGuest, false
	}
	role, ok := ParseRole(account.Role)
	if !ok {
		g.logger.Warn("unrecognized role on account, treating as user",
			slog.String("user_id", userID),
			slog.String("role", account.Role),
		)
		role = RoleUser
	}
	if string(role) != sess.Role() {
		sess.SetRole(string(role))
	}
	return role, true
}

func (g *Gate) sessionRole(sess *shared.Session) Role {
	raw := sess.Role()
	if strings.TrimSpace(raw) == "" {
		// Authenticated sessions without a recorded role default to user.
		return RoleUser
	}
	role, ok := ParseRole(raw)
	if !ok {
		return RoleUser
	}
	return role
}

func (g *Gate) lookupAccount(ctx context.Context, userID string) (Account, error) {
	if cached, ok := g.accounts.Get(userID); ok {
		return cached.(Account), nil
	}
	account, err := g.directory.FindAccount(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	g.accounts.SetDefault(userID, account)
	return account, nil
}

// InvalidateAccount drops a cached account entry after an admin mutation so
// role or status changes take effect without waiting for the TTL.
func (g *Gate) InvalidateAccount(userID string) {
	g.accounts.Delete(userID)
}

func (g *Gate) authorize(w http.ResponseWriter, r *http.Request, next http.Handler, role Role) {
	path := r.URL.Path
	if isAPIPath(path) {
		// API authorization is capability based; the matrix covers pages.
		next.ServeHTTP(w, r)
		return
	}
	if PageAllowed(role, path) {
		next.ServeHTTP(w, r)
		return
	}
	g.deny(w, r, HomePage(role), http.StatusForbidden)
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, redirect string, apiStatus int) {
	if isAPIPath(r.URL.Path) {
		if apiStatus == http.StatusForbidden {
			httpx.RespondError(w, httpx.ErrForbidden)
		} else {
			httpx.RespondError(w, httpx.ErrUnauthorized)
		}
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/metrics" || strings.HasPrefix(path, "/ws")
}
