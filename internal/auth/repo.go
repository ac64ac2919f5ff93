package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository abstracts persistence used by the auth service.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User, verifyToken string) error
	MarkVerified(ctx context.Context, token string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail loads a user by normalized email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, role, status, email_verified, created_at, last_login_at, role_updated_at
		FROM users WHERE email = $1`, email)
	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.Status,
		&user.EmailVerified, &user.CreatedAt, &user.LastLoginAt, &user.RoleUpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new account row together with its verification token.
func (r *PGRepository) Create(ctx context.Context, user *User, verifyToken string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, status, email_verified, verify_token, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, $7)`,
		user.ID, user.Email, user.PasswordHash, user.Role, user.Status, verifyToken, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// MarkVerified flips the account to verified and active in one statement.
func (r *PGRepository) MarkVerified(ctx context.Context, token string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET email_verified = true, status = $1, verify_token = NULL
		WHERE verify_token = $2 AND email_verified = false`, StatusActive, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenInvalid
	}
	return nil
}

// UpdateLastLogin stamps the last successful login time.
func (r *PGRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id)
	return err
}
