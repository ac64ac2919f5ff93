package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fishda/fishda/internal/thresholds"
)

// Store abstracts persistence for the alert service.
type Store interface {
	ListActive(ctx context.Context) ([]Alert, error)
	GetActive(ctx context.Context, id string) (Alert, error)
	InsertActive(ctx context.Context, a Alert) error
	UpdateActive(ctx context.Context, a Alert) error
	DeleteActive(ctx context.Context, id string) error
	InsertHistory(ctx context.Context, h HistoryRecord) error
	ListHistory(ctx context.Context, limit int) ([]HistoryRecord, error)
}

// Notifier is told about newly created alerts. Updates to an existing alert
// and resolutions are not notified.
type Notifier interface {
	AlertCreated(ctx context.Context, a Alert)
}

// Service owns the active-alert lifecycle. It mirrors the active set in
// memory, keyed by parameter, so the hot evaluation path never queries the
// database to decide create-versus-update.
type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	clock    func() time.Time

	mu     sync.Mutex
	active map[string]Alert // parameter -> active alert
	primed bool
}

// NewService constructs a Service. Prime must run before readings are
// evaluated; until then the service treats every parameter as alert-free
// and suppresses notifications.
func NewService(store Store, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		clock:    func() time.Time { return time.Now().UTC() },
		active:   map[string]Alert{},
	}
}

// Prime loads the stored active alerts into the in-memory mirror. Alerts
// present at prime time predate this process and never trigger a creation
// notification.
func (s *Service) Prime(ctx context.Context) error {
	stored, err := s.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("prime active alerts: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = make(map[string]Alert, len(stored))
	for _, a := range stored {
		s.active[a.Parameter] = a
	}
	s.primed = true
	s.logger.Info("alert service primed", slog.Int("active", len(stored)))
	return nil
}

// Raise creates or refreshes the single active alert for a parameter.
// An existing alert is updated in place, keeping its identity and
// detection time; only creation notifies.
func (s *Service) Raise(ctx context.Context, parameter string, value float64, severity Severity, t thresholds.Record) error {
	now := s.clock()

	s.mu.Lock()
	existing, ok := s.active[parameter]
	primed := s.primed
	s.mu.Unlock()

	if ok {
		existing.Value = value
		existing.Severity = severity
		existing.Threshold = ThresholdDescription(t)
		existing.Message = AlertMessage(parameter, value, severity, t)
		existing.UpdatedAt = now
		if err := s.store.UpdateActive(ctx, existing); err != nil {
			if errors.Is(err, ErrAlertNotFound) {
				// Mirror drifted from the store (manual row removal). Drop the
				// stale entry and fall through to create.
				s.mu.Lock()
				delete(s.active, parameter)
				s.mu.Unlock()
				return s.Raise(ctx, parameter, value, severity, t)
			}
			return err
		}
		s.mu.Lock()
		s.active[parameter] = existing
		s.mu.Unlock()
		return nil
	}

	created := Alert{
		ID:         uuid.NewString(),
		Parameter:  parameter,
		Value:      value,
		Severity:   severity,
		Threshold:  ThresholdDescription(t),
		Message:    AlertMessage(parameter, value, severity, t),
		DetectedAt: now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertActive(ctx, created); err != nil {
		return err
	}
	s.mu.Lock()
	s.active[parameter] = created
	s.mu.Unlock()

	s.logger.Info("alert raised",
		slog.String("parameter", parameter),
		slog.String("severity", string(severity)),
		slog.Float64("value", value),
	)
	if primed && s.notifier != nil {
		s.notifier.AlertCreated(ctx, created)
	}
	return nil
}

// AutoResolve retires the parameter's active alert because its value
// returned to the safe band. No-op when no alert is active.
func (s *Service) AutoResolve(ctx context.Context, parameter string, value float64) error {
	s.mu.Lock()
	a, ok := s.active[parameter]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	record := HistoryRecord{
		Alert:             a,
		AutoResolved:      true,
		ResolvedAt:        s.clock(),
		ResolutionMessage: fmt.Sprintf("%s returned to safe band at %.2f", ParameterTitle(parameter), value),
	}
	return s.retire(ctx, record)
}

// Acknowledge resolves one active alert on behalf of an operator.
func (s *Service) Acknowledge(ctx context.Context, id, actor string) error {
	a, err := s.findActiveByID(ctx, id)
	if err != nil {
		return err
	}
	now := s.clock()
	record := HistoryRecord{
		Alert:          a,
		Acknowledged:   true,
		AcknowledgedAt: &now,
		ResolvedAt:     now,
		ResolvedBy:     actor,
	}
	if err := s.retire(ctx, record); err != nil {
		return err
	}
	s.logger.Info("alert acknowledged", slog.String("id", id), slog.String("parameter", a.Parameter), slog.String("actor", actor))
	return nil
}

// Dismiss resolves one active alert marked as dismissed rather than
// acknowledged.
func (s *Service) Dismiss(ctx context.Context, id, actor string) error {
	a, err := s.findActiveByID(ctx, id)
	if err != nil {
		return err
	}
	now := s.clock()
	record := HistoryRecord{
		Alert:       a,
		Dismissed:   true,
		DismissedAt: &now,
		ResolvedAt:  now,
		ResolvedBy:  actor,
	}
	if err := s.retire(ctx, record); err != nil {
		return err
	}
	s.logger.Info("alert dismissed", slog.String("id", id), slog.String("parameter", a.Parameter), slog.String("actor", actor))
	return nil
}

// AcknowledgeAll acknowledges every active alert. Failures are collected
// per alert and joined; alerts that succeed stay resolved.
func (s *Service) AcknowledgeAll(ctx context.Context, actor string) (int, error) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.active))
	for _, a := range s.active {
		ids = append(ids, a.ID)
	}
	s.mu.Unlock()

	var (
		resolved int
		failures []error
	)
	for _, id := range ids {
		if err := s.Acknowledge(ctx, id, actor); err != nil {
			if errors.Is(err, ErrAlertNotFound) {
				continue
			}
			failures = append(failures, fmt.Errorf("alert %s: %w", id, err))
			continue
		}
		resolved++
	}
	return resolved, errors.Join(failures...)
}

// ListActive returns active alerts, newest detection first.
func (s *Service) ListActive(ctx context.Context) ([]Alert, error) {
	return s.store.ListActive(ctx)
}

// ActiveCount reports the size of the active set without touching the store.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// ListHistory returns resolved alerts, newest resolution first.
func (s *Service) ListHistory(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	return s.store.ListHistory(ctx, limit)
}

// retire writes the history record first and removes the active row second.
// If the removal fails the alert appears in both views; that duplication is
// logged for reconciliation and preferred over losing the history record.
func (s *Service) retire(ctx context.Context, record HistoryRecord) error {
	if err := s.store.InsertHistory(ctx, record); err != nil {
		return fmt.Errorf("write alert history: %w", err)
	}
	if err := s.store.DeleteActive(ctx, record.ID); err != nil && !errors.Is(err, ErrAlertNotFound) {
		s.logger.Error("active alert not removed after history write, duplicate visible until reconciled",
			slog.String("id", record.ID),
			slog.String("parameter", record.Parameter),
			slog.Any("error", err),
		)
		return fmt.Errorf("remove active alert: %w", err)
	}
	s.mu.Lock()
	if current, ok := s.active[record.Parameter]; ok && current.ID == record.ID {
		delete(s.active, record.Parameter)
	}
	s.mu.Unlock()
	return nil
}

func (s *Service) findActiveByID(ctx context.Context, id string) (Alert, error) {
	s.mu.Lock()
	for _, a := range s.active {
		if a.ID == id {
			s.mu.Unlock()
			return a, nil
		}
	}
	s.mu.Unlock()
	// Fall back to the store for alerts created before this process primed
	// or raised by another instance.
	return s.store.GetActive(ctx, id)
}
