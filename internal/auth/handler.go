package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fishda/fishda/internal/platform/httpx"
	"github.com/fishda/fishda/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/guest", h.handleGuest)
	r.Post("/signup", h.handleSignup)
	r.Post("/verify", h.handleVerify)
	r.Post("/logout", h.handleLogout)
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionUserResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", loginMessage(ErrInvalidEmail))
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, ErrAccountDisabled) || errors.Is(err, ErrAccountSuspended) || errors.Is(err, ErrEmailUnverified) {
			status = http.StatusForbidden
		}
		httpx.Problem(w, status, "Login Failed", loginMessage(err))
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(user.ID, user.Role)
	httpx.JSON(w, http.StatusOK, sessionUserResponse{UserID: user.ID, Email: user.Email, Role: user.Role})
}

func (h *Handler) handleGuest(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetGuest()
	httpx.JSON(w, http.StatusOK, map[string]any{"role": "guest", "guest": true})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email must be valid and password at least 8 characters")
		return
	}
	user, err := h.service.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httpx.Problem(w, http.StatusConflict, "Signup Failed", "that email is already registered")
			return
		}
		if errors.Is(err, ErrInvalidEmail) {
			httpx.Problem(w, http.StatusBadRequest, "Signup Failed", loginMessage(err))
			return
		}
		h.logger.Error("signup", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{
		"userId":  user.ID,
		"message": "check your email to verify the account",
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.Verify(r.Context(), req.Token); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Verification Failed", "that verification link is invalid or already used")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "account verified, you can sign in now"})
}

// handleLogout destroys the session unconditionally; a failing backing store
// must never keep the caller signed in.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// loginMessage maps the auth error taxonomy to user-facing plain language.
func loginMessage(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "no account exists for that email"
	case errors.Is(err, ErrWrongCredential):
		return "the password is incorrect"
	case errors.Is(err, ErrInvalidEmail):
		return "that does not look like a valid email address"
	case errors.Is(err, ErrAccountDisabled):
		return "this account is disabled; contact an administrator"
	case errors.Is(err, ErrAccountSuspended):
		return "this account is suspended; contact an administrator"
	case errors.Is(err, ErrEmailUnverified):
		return "verify your email address before signing in"
	default:
		return "sign-in failed, please try again"
	}
}
