package thresholds

import (
	"context"
	"log/slog"
	"time"
)

// Store abstracts persistence for the threshold service.
type Store interface {
	List(ctx context.Context) (map[string]Record, error)
	Get(ctx context.Context, parameter string) (Record, error)
	Upsert(ctx context.Context, rec Record, at time.Time) error
}

// Service reads and mutates threshold configuration.
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

// Seed writes default records for parameters that have none yet.
func (s *Service) Seed(ctx context.Context) error {
	existing, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	now := s.clock()
	for _, rec := range Defaults() {
		if _, ok := existing[rec.Parameter]; ok {
			continue
		}
		if err := s.store.Upsert(ctx, rec, now); err != nil {
			return err
		}
		s.logger.Info("seeded threshold", slog.String("parameter", rec.Parameter))
	}
	return nil
}

// All returns every threshold record, falling back to defaults for any
// parameter missing from the store so classification always has a band.
func (s *Service) All(ctx context.Context) (map[string]Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range Defaults() {
		if _, ok := records[rec.Parameter]; !ok {
			records[rec.Parameter] = rec
		}
	}
	return records, nil
}

// Update validates and persists an administrator edit. Validation failures
// block the save; nothing is written.
func (s *Service) Update(ctx context.Context, rec Record) (Record, error) {
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	rec.UpdatedAt = s.clock()
	if err := s.store.Upsert(ctx, rec, rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	s.logger.Info("threshold updated",
		slog.String("parameter", rec.Parameter),
		slog.Float64("safe_min", rec.SafeMin),
		slog.Float64("safe_max", rec.SafeMax),
		slog.Float64("warn_min", rec.WarnMin),
		slog.Float64("warn_max", rec.WarnMax),
	)
	return rec, nil
}
