package auth

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// VerificationSender delivers the signup verification message, typically by
// enqueueing a background job.
type VerificationSender interface {
	SendVerification(ctx context.Context, email, token string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	sender VerificationSender
	logger *slog.Logger
	clock  func() time.Time
}

// NewService constructs a new Service. The sender may be nil in tests.
func NewService(repo Repository, sender VerificationSender, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		sender: sender,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate validates email/password credentials and enforces account
// status: a record with status other than active never yields a session.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongCredential
	}
	if !user.EmailVerified {
		return nil, ErrEmailUnverified
	}
	switch user.Status {
	case StatusActive:
	case StatusSuspended:
		return nil, ErrAccountSuspended
	default:
		return nil, ErrAccountDisabled
	}
	now := s.clock()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("update last login", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	user.LastLoginAt = &now
	return user, nil
}

// SignUp registers a new account. The record starts disabled and unverified;
// it only becomes usable once Verify proves control of the email address.
func (s *Service) SignUp(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	token := uuid.NewString()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         "user",
		Status:       StatusDisabled,
		CreatedAt:    s.clock(),
	}
	if err := s.repo.Create(ctx, user, token); err != nil {
		return nil, err
	}
	if s.sender != nil {
		if err := s.sender.SendVerification(ctx, email, token); err != nil {
			s.logger.Error("send verification", slog.String("email", email), slog.Any("error", err))
		}
	}
	return user, nil
}

// Verify activates the account matching the verification token.
func (s *Service) Verify(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenInvalid
	}
	return s.repo.MarkVerified(ctx, token)
}
