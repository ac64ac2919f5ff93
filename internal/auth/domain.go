package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fishda/fishda/internal/platform/httpx"
)

// Account statuses. Only active accounts may hold a non-guest session.
const (
	StatusActive    = "active"
	StatusDisabled  = "disabled"
	StatusSuspended = "suspended"
)

// User represents an authenticated user account.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          string
	Status        string
	EmailVerified bool
	CreatedAt     time.Time
	LastLoginAt   *time.Time
	RoleUpdatedAt *time.Time
}

// Login failure taxonomy. Handlers map these to plain-language messages;
// services never leak which branch rejected the attempt beyond this set.
var (
	ErrUserNotFound     = errors.New("auth: no account for that email")
	ErrWrongCredential  = errors.New("auth: wrong password")
	ErrInvalidEmail     = errors.New("auth: invalid email format")
	ErrAccountDisabled  = errors.New("auth: account disabled")
	ErrAccountSuspended = errors.New("auth: account suspended")
	ErrEmailUnverified  = errors.New("auth: email not verified")
	ErrEmailTaken       = fmt.Errorf("auth: email already registered: %w", httpx.ErrDuplicate)
	ErrTokenInvalid     = errors.New("auth: verification token invalid")
)
