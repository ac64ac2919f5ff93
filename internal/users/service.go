package users

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fishda/fishda/internal/access"
)

// Store abstracts persistence for the user management service.
type Store interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateRole(ctx context.Context, id, role string, at time.Time) error
	UpdateStatus(ctx context.Context, id, status string) error
}

// Service carries user management business rules.
type Service struct {
	store  Store
	logger *slog.Logger
	clock  func() time.Time
}

// NewService constructs a Service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// List returns every user record.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// Get returns one user record.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.store.GetUser(ctx, id)
}

// SetRole assigns a new role, stamping role_updated_at.
func (s *Service) SetRole(ctx context.Context, id, role string) error {
	if !validRoles[role] {
		return ErrInvalidRole
	}
	now := s.clock()
	if err := s.store.UpdateRole(ctx, id, role, now); err != nil {
		return err
	}
	s.logger.Info("role updated", slog.String("user_id", id), slog.String("role", role))
	return nil
}

// SetStatus changes the account status.
func (s *Service) SetStatus(ctx context.Context, id, status string) error {
	if !validStatuses[status] {
		return ErrInvalidStatus
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("status updated", slog.String("user_id", id), slog.String("status", status))
	return nil
}

// FindAccount implements access.UserDirectory so the gate can reconcile
// sessions against the server of record.
func (s *Service) FindAccount(ctx context.Context, userID string) (access.Account, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return access.Account{}, access.ErrAccountNotFound
		}
		return access.Account{}, err
	}
	return access.Account{Role: user.Role, Status: user.Status}, nil
}
