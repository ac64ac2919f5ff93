package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishda/fishda/internal/shared"
)

// handlerHarness mounts the auth routes behind a session-loading middleware
// the way the application router does, exposing the last loaded session for
// assertions.
type handlerHarness struct {
	router   http.Handler
	sessions *shared.SessionManager
	lastSess *shared.Session
}

func newHandlerHarness(t *testing.T, repo Repository) *handlerHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	handler := NewHandler(authLogger(), NewService(repo, nil, authLogger()), sessions)

	h := &handlerHarness{sessions: sessions}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			h.lastSess = sess
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/api/auth", handler.MountRoutes)
	h.router = r
	return h
}

func (h *handlerHarness) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, req)
	return res
}

func TestLoginAttachesUserToSession(t *testing.T) {
	repo := newStubRepo()
	repo.users["keeper@pond.local"] = activeUser(t)
	h := newHandlerHarness(t, repo)

	res := h.post("/api/auth/login", `{"email":"keeper@pond.local","password":"open-sesame-9"}`)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Contains(t, res.Body.String(), `"userId":"u1"`)
	assert.Equal(t, "u1", h.lastSess.User())
	assert.Equal(t, "user", h.lastSess.Role())
	assert.False(t, h.lastSess.IsGuest())
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubRepo()
	repo.users["keeper@pond.local"] = activeUser(t)
	h := newHandlerHarness(t, repo)

	res := h.post("/api/auth/login", `{"email":"keeper@pond.local","password":"not-the-password"}`)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "the password is incorrect")
	assert.Empty(t, h.lastSess.User())
}

func TestLoginBlockedAccountGetsForbidden(t *testing.T) {
	repo := newStubRepo()
	suspended := activeUser(t)
	suspended.Status = StatusSuspended
	repo.users[suspended.Email] = suspended
	h := newHandlerHarness(t, repo)

	res := h.post("/api/auth/login", `{"email":"keeper@pond.local","password":"open-sesame-9"}`)

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "suspended")
}

func TestLoginMalformedBody(t *testing.T) {
	h := newHandlerHarness(t, newStubRepo())

	res := h.post("/api/auth/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = h.post("/api/auth/login", `{"email":"keeper@pond.local","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestGuestSession(t *testing.T) {
	h := newHandlerHarness(t, newStubRepo())

	res := h.post("/api/auth/guest", "")

	require.Equal(t, http.StatusOK, res.Code)
	assert.True(t, h.lastSess.IsGuest())
	assert.Equal(t, "guest", h.lastSess.Role())
	assert.Empty(t, h.lastSess.User())
}

func TestSignupConflict(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = ErrEmailTaken
	h := newHandlerHarness(t, repo)

	res := h.post("/api/auth/signup", `{"email":"keeper@pond.local","password":"a-long-password"}`)

	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Contains(t, res.Body.String(), "already registered")
}

func TestSignupCreated(t *testing.T) {
	repo := newStubRepo()
	h := newHandlerHarness(t, repo)

	res := h.post("/api/auth/signup", `{"email":"new.keeper@pond.local","password":"a-long-password"}`)

	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	assert.Contains(t, res.Body.String(), "verify")
	require.Len(t, repo.created, 1)
	assert.Empty(t, h.lastSess.User(), "signup does not sign the caller in")
}

func TestLogoutDestroysSession(t *testing.T) {
	repo := newStubRepo()
	repo.users["keeper@pond.local"] = activeUser(t)
	h := newHandlerHarness(t, repo)

	res := h.post("/api/auth/login", `{"email":"keeper@pond.local","password":"open-sesame-9"}`)
	require.Equal(t, http.StatusOK, res.Code)

	res = h.post("/api/auth/logout", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, h.lastSess.Destroyed())
}
