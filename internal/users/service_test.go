package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishda/fishda/internal/access"
	"github.com/fishda/fishda/internal/platform/httpx"
)

type memStore struct {
	users      map[string]User
	roleStamps map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{users: map[string]User{}, roleStamps: map[string]time.Time{}}
}

func (m *memStore) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) GetUser(ctx context.Context, id string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		// Repositories wrap their sentinels with query context.
		return User{}, fmt.Errorf("get user %s: %w", id, ErrUserNotFound)
	}
	return u, nil
}

func (m *memStore) UpdateRole(ctx context.Context, id, role string, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Role = role
	m.users[id] = u
	m.roleStamps[id] = at
	return nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id, status string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Status = status
	m.users[id] = u
	return nil
}

func testService(store Store) *Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSetRoleValidatesAndStamps(t *testing.T) {
	store := newMemStore()
	store.users["u1"] = User{ID: "u1", Role: "user", Status: "active"}
	svc := testService(store)
	fixed := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	require.NoError(t, svc.SetRole(context.Background(), "u1", "admin"))
	assert.Equal(t, "admin", store.users["u1"].Role)
	assert.Equal(t, fixed, store.roleStamps["u1"])

	assert.ErrorIs(t, svc.SetRole(context.Background(), "u1", "root"), ErrInvalidRole)
	assert.ErrorIs(t, svc.SetRole(context.Background(), "missing", "admin"), ErrUserNotFound)
}

func TestSetStatusValidates(t *testing.T) {
	store := newMemStore()
	store.users["u1"] = User{ID: "u1", Role: "user", Status: "active"}
	svc := testService(store)

	require.NoError(t, svc.SetStatus(context.Background(), "u1", "suspended"))
	assert.Equal(t, "suspended", store.users["u1"].Status)

	assert.ErrorIs(t, svc.SetStatus(context.Background(), "u1", "banned"), ErrInvalidStatus)
}

func TestFindAccountMapsMissingUser(t *testing.T) {
	store := newMemStore()
	store.users["u1"] = User{ID: "u1", Role: "admin", Status: "active"}
	svc := testService(store)

	account, err := svc.FindAccount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, access.Account{Role: "admin", Status: "active"}, account)

	// The store wraps its not-found sentinel; the mapping must still hold.
	_, err = svc.FindAccount(context.Background(), "gone")
	assert.ErrorIs(t, err, access.ErrAccountNotFound)
}

func TestFindAccountPassesThroughOutage(t *testing.T) {
	svc := testService(failingStore{})

	_, err := svc.FindAccount(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, access.ErrAccountNotFound)
}

func TestDomainSentinelsCarryHTTPStatus(t *testing.T) {
	assert.ErrorIs(t, ErrUserNotFound, httpx.ErrNotFound)
	assert.ErrorIs(t, ErrInvalidRole, httpx.ErrValidation)
	assert.ErrorIs(t, ErrInvalidStatus, httpx.ErrValidation)
}

type failingStore struct{}

func (failingStore) ListUsers(ctx context.Context) ([]User, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) GetUser(ctx context.Context, id string) (User, error) {
	return User{}, errors.New("connection refused")
}

func (failingStore) UpdateRole(ctx context.Context, id, role string, at time.Time) error {
	return errors.New("connection refused")
}

func (failingStore) UpdateStatus(ctx context.Context, id, status string) error {
	return errors.New("connection refused")
}
