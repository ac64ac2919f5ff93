package users

import (
	"fmt"
	"time"

	"github.com/fishda/fishda/internal/platform/httpx"
)

// User represents a user account for management.
type User struct {
	ID            string
	Email         string
	Role          string
	Status        string
	EmailVerified bool
	CreatedAt     time.Time
	LastLoginAt   *time.Time
	RoleUpdatedAt *time.Time
}

// Domain sentinels wrap the httpx sentinels so handlers can hand the
// response mapping to httpx.RespondError.
var (
	// ErrUserNotFound occurs when the user record is missing.
	ErrUserNotFound = fmt.Errorf("users: no such user: %w", httpx.ErrNotFound)
	// ErrInvalidRole occurs when an unknown role is assigned.
	ErrInvalidRole = fmt.Errorf("users: unknown role: %w", httpx.ErrValidation)
	// ErrInvalidStatus occurs when an unknown status is assigned.
	ErrInvalidStatus = fmt.Errorf("users: unknown status: %w", httpx.ErrValidation)
)

var validRoles = map[string]bool{"admin": true, "user": true}

var validStatuses = map[string]bool{"active": true, "disabled": true, "suspended": true}
