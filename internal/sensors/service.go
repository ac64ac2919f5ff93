package sensors

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Store abstracts persistence for the sensor service.
type Store interface {
	Insert(ctx context.Context, reading *Reading) error
	Latest(ctx context.Context) (Reading, error)
	History(ctx context.Context, filter HistoryFilter) ([]Reading, error)
}

// Publisher pushes accepted readings onto the change feed.
type Publisher interface {
	Publish(ctx context.Context, reading Reading) error
}

// CacheBumper invalidates derived caches after new data lands.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service coordinates reading ingest with the feed and cache layers.
type Service struct {
	store  Store
	feed   Publisher
	bumper CacheBumper
	logger *slog.Logger
	clock  func() time.Time
}

// NewService constructs a Service. feed and bumper may be nil in tests.
func NewService(store Store, feed Publisher, bumper CacheBumper, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		feed:   feed,
		bumper: bumper,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Ingest validates, persists and publishes one reading. A feed publish
// failure is logged but does not fail the ingest: the reading is already the
// store of record and subscribers catch up on the next sample.
func (s *Service) Ingest(ctx context.Context, reading Reading) (Reading, error) {
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = s.clock()
	}
	if err := validateReading(reading); err != nil {
		return Reading{}, err
	}
	if err := s.store.Insert(ctx, &reading); err != nil {
		return Reading{}, err
	}
	if s.feed != nil {
		if err := s.feed.Publish(ctx, reading); err != nil {
			s.logger.Error("publish reading", slog.Any("error", err))
		}
	}
	if s.bumper != nil {
		if err := s.bumper.Bump(ctx); err != nil {
			s.logger.Warn("bump analytics cache", slog.Any("error", err))
		}
	}
	return reading, nil
}

// Latest returns the most recent reading.
func (s *Service) Latest(ctx context.Context) (Reading, error) {
	return s.store.Latest(ctx)
}

// History returns readings within the window.
func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]Reading, error) {
	if filter.To.IsZero() {
		filter.To = s.clock()
	}
	if filter.From.IsZero() {
		filter.From = filter.To.Add(-24 * time.Hour)
	}
	if filter.From.After(filter.To) {
		return nil, errors.New("sensors: history window start is after its end")
	}
	return s.store.History(ctx, filter)
}

func validateReading(r Reading) error {
	if r.PH < 0 || r.PH > 14 {
		return errors.New("sensors: ph out of measurable range 0-14")
	}
	if r.Turbidity < 0 {
		return errors.New("sensors: turbidity cannot be negative")
	}
	if r.Salinity < 0 {
		return errors.New("sensors: salinity cannot be negative")
	}
	if r.DissolvedOxygen < 0 {
		return errors.New("sensors: dissolved oxygen cannot be negative")
	}
	return nil
}
