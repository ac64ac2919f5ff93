package alerts

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/fishda/fishda/internal/sensors"
	"github.com/fishda/fishda/internal/thresholds"
)

// changeEpsilon is the absolute difference below which two samples of the
// same parameter count as unchanged. Sensor jitter and float round-trips
// stay under this; real movement does not.
const changeEpsilon = 0.01

// Classify places a value in exactly one of Safe, Warning or Critical.
//
// Band convention: the critical cutoffs are strict (v < warnMin or
// v > warnMax); the warning band is half-open against the safe band
// (v < safeMin or v > safeMax, so boundary values are Safe). This is applied
// uniformly; no other code compares values against thresholds.
func Classify(v float64, t thresholds.Record) State {
	if v < t.WarnMin || v > t.WarnMax {
		return StateCritical
	}
	if v < t.SafeMin || v > t.SafeMax {
		return StateWarning
	}
	return StateSafe
}

// ThresholdSource supplies the current band configuration.
type ThresholdSource interface {
	All(ctx context.Context) (map[string]thresholds.Record, error)
}

// Lifecycle is the slice of the alert service the engine drives.
type Lifecycle interface {
	Prime(ctx context.Context) error
	Raise(ctx context.Context, parameter string, value float64, severity Severity, t thresholds.Record) error
	AutoResolve(ctx context.Context, parameter string, value float64) error
}

// Engine evaluates streaming readings against thresholds and drives the
// alert lifecycle. It is single-consumer: Evaluate is called from one feed
// subscription goroutine; the mutex only guards against Run/Evaluate racing
// introspection calls.
type Engine struct {
	thresholds ThresholdSource
	lifecycle  Lifecycle
	logger     *slog.Logger

	mu          sync.Mutex
	last        *sensors.Reading
	lastSeenAt  time.Time
	evaluations uint64
	suppressed  uint64
}

// NewEngine constructs an Engine.
func NewEngine(source ThresholdSource, lifecycle Lifecycle, logger *slog.Logger) *Engine {
	return &Engine{thresholds: source, lifecycle: lifecycle, logger: logger}
}

// Run primes the lifecycle with the stored active alerts, then consumes the
// feed until the context is cancelled. Priming before subscribing replaces
// the settle-timer heuristic: pre-existing alerts are loaded as a snapshot,
// so notifications only ever fire for alerts created afterwards.
func (e *Engine) Run(ctx context.Context, feed *sensors.Feed) error {
	if err := e.lifecycle.Prime(ctx); err != nil {
		return err
	}
	return feed.Subscribe(ctx, func(reading sensors.Reading) {
		if err := e.Evaluate(ctx, reading); err != nil {
			e.logger.Error("evaluate reading", slog.Any("error", err))
		}
	})
}

// Evaluate classifies one reading. Re-deliveries and jitter are suppressed:
// the reading must be strictly newer than the last processed one and at
// least one parameter must have moved more than changeEpsilon.
func (e *Engine) Evaluate(ctx context.Context, reading sensors.Reading) error {
	e.mu.Lock()
	if !e.shouldProcess(reading) {
		e.suppressed++
		e.mu.Unlock()
		return nil
	}
	snapshot := reading
	e.last = &snapshot
	e.lastSeenAt = reading.RecordedAt
	e.evaluations++
	e.mu.Unlock()

	records, err := e.thresholds.All(ctx)
	if err != nil {
		return err
	}

	for _, parameter := range thresholds.Parameters() {
		value, ok := reading.Value(parameter)
		if !ok {
			continue
		}
		t, ok := records[parameter]
		if !ok {
			e.logger.Warn("no threshold record", slog.String("parameter", parameter))
			continue
		}
		switch Classify(value, t) {
		case StateCritical:
			if err := e.lifecycle.Raise(ctx, parameter, value, SeverityCritical, t); err != nil {
				e.logger.Error("raise critical alert", slog.String("parameter", parameter), slog.Any("error", err))
			}
		case StateWarning:
			if err := e.lifecycle.Raise(ctx, parameter, value, SeverityWarning, t); err != nil {
				e.logger.Error("raise warning alert", slog.String("parameter", parameter), slog.Any("error", err))
			}
		case StateSafe:
			if err := e.lifecycle.AutoResolve(ctx, parameter, value); err != nil {
				e.logger.Error("auto-resolve alert", slog.String("parameter", parameter), slog.Any("error", err))
			}
		}
	}
	return nil
}

// Stats reports how many readings were evaluated and suppressed.
func (e *Engine) Stats() (evaluated, suppressed uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluations, e.suppressed
}

func (e *Engine) shouldProcess(reading sensors.Reading) bool {
	if e.last == nil {
		return true
	}
	if !reading.RecordedAt.After(e.lastSeenAt) {
		return false
	}
	for _, parameter := range thresholds.Parameters() {
		next, _ := reading.Value(parameter)
		prev, _ := e.last.Value(parameter)
		if math.Abs(next-prev) > changeEpsilon {
			return true
		}
	}
	return false
}
