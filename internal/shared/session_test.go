package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("u1", "admin")
	sess.Set("theme", "dark")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, httptest.NewRequest(http.MethodGet, "/", nil), sess))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "test_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "u1", loaded.User())
	assert.Equal(t, "admin", loaded.Role())
	assert.Equal(t, "dark", loaded.Get("theme"))
	assert.True(t, loaded.IsAuthenticated())
	assert.False(t, loaded.IsGuest())
}

func TestSessionMalformedPayloadFailsClosed(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("session:abc", "{not json"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: "abc"})
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)

	// Corrupt state never leaks; the caller continues anonymous.
	assert.False(t, sess.IsAuthenticated())
	assert.False(t, sess.IsGuest())
	assert.Empty(t, sess.Role())
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	sm, _ := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: "expired-id"})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "expired-id", sess.ID, "cookie identity is reused")
	assert.False(t, sess.IsAuthenticated())
}

func TestSessionDestroy(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("u1", "user")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	assert.True(t, mr.Exists("session:"+sess.ID))

	sm.Destroy(sess)
	res = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, httptest.NewRequest(http.MethodGet, "/", nil), sess))

	assert.False(t, mr.Exists("session:"+sess.ID))
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge, "cookie is expired on destroy")
}

func TestGuestAndUserAreExclusive(t *testing.T) {
	sm, _ := newTestManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	sess.SetGuest()
	assert.True(t, sess.IsGuest())
	assert.False(t, sess.IsAuthenticated())

	sess.SetUser("u1", "user")
	assert.False(t, sess.IsGuest())
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "u1", sess.User())
}
