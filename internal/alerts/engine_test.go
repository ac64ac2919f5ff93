package alerts

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishda/fishda/internal/sensors"
	"github.com/fishda/fishda/internal/thresholds"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tempBand() thresholds.Record {
	return thresholds.Record{
		Parameter: thresholds.ParamTemperature,
		SafeMin:   26, SafeMax: 32,
		WarnMin: 24, WarnMax: 34,
		Unit: "°C",
	}
}

func TestClassify(t *testing.T) {
	band := tempBand()

	tests := []struct {
		name  string
		value float64
		want  State
	}{
		{"inside safe band", 28, StateSafe},
		{"safe lower boundary", 26, StateSafe},
		{"safe upper boundary", 32, StateSafe},
		{"above safe below tolerable", 33, StateWarning},
		{"below safe above tolerable", 25, StateWarning},
		{"tolerable upper boundary", 34, StateWarning},
		{"tolerable lower boundary", 24, StateWarning},
		{"above tolerable", 35, StateCritical},
		{"below tolerable", 23.5, StateCritical},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.value, band))
		})
	}
}

// Classification must be monotone: walking a value upward from the safe band
// never skips from Safe to Critical and back.
func TestClassifyMonotoneAscending(t *testing.T) {
	band := tempBand()
	rank := map[State]int{StateSafe: 0, StateWarning: 1, StateCritical: 2}

	prev := Classify(band.SafeMax, band)
	for v := band.SafeMax; v <= band.WarnMax+2; v += 0.1 {
		got := Classify(v, band)
		require.GreaterOrEqual(t, rank[got], rank[prev], "severity regressed at %.1f", v)
		prev = got
	}
}

type lifecycleRecorder struct {
	primed  int
	raised  []string
	cleared []string
}

func (l *lifecycleRecorder) Prime(context.Context) error { l.primed++; return nil }
func (l *lifecycleRecorder) Raise(_ context.Context, parameter string, _ float64, severity Severity, _ thresholds.Record) error {
	l.raised = append(l.raised, parameter+":"+string(severity))
	return nil
}
func (l *lifecycleRecorder) AutoResolve(_ context.Context, parameter string, _ float64) error {
	l.cleared = append(l.cleared, parameter)
	return nil
}

type staticThresholds map[string]thresholds.Record

func (s staticThresholds) All(context.Context) (map[string]thresholds.Record, error) {
	out := make(map[string]thresholds.Record, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

func defaultSource() staticThresholds {
	src := staticThresholds{}
	for _, rec := range thresholds.Defaults() {
		src[rec.Parameter] = rec
	}
	return src
}

func safeReading(at time.Time) sensors.Reading {
	return sensors.Reading{
		Temperature:     28,
		PH:              7.2,
		Salinity:        3,
		Turbidity:       30,
		DissolvedOxygen: 7,
		RecordedAt:      at,
	}
}

func TestEngineEvaluateRaisesAndResolves(t *testing.T) {
	rec := &lifecycleRecorder{}
	engine := NewEngine(defaultSource(), rec, testLogger())

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	hot := safeReading(base)
	hot.Temperature = 33 // warning band
	require.NoError(t, engine.Evaluate(context.Background(), hot))
	assert.Equal(t, []string{"temperature:warning"}, rec.raised)

	hotter := safeReading(base.Add(time.Minute))
	hotter.Temperature = 35 // critical band
	require.NoError(t, engine.Evaluate(context.Background(), hotter))
	assert.Equal(t, []string{"temperature:warning", "temperature:critical"}, rec.raised)

	cooled := safeReading(base.Add(2 * time.Minute))
	require.NoError(t, engine.Evaluate(context.Background(), cooled))
	assert.Contains(t, rec.cleared, "temperature")
}

func TestEngineSuppressesStaleAndUnchanged(t *testing.T) {
	rec := &lifecycleRecorder{}
	engine := NewEngine(defaultSource(), rec, testLogger())

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	first := safeReading(base)
	first.Temperature = 33
	require.NoError(t, engine.Evaluate(context.Background(), first))
	require.Len(t, rec.raised, 1)

	// Same timestamp again: a re-delivery, must not reprocess.
	require.NoError(t, engine.Evaluate(context.Background(), first))
	assert.Len(t, rec.raised, 1)

	// Older timestamp: out of order, must not reprocess.
	stale := first
	stale.RecordedAt = base.Add(-time.Minute)
	stale.Temperature = 40
	require.NoError(t, engine.Evaluate(context.Background(), stale))
	assert.Len(t, rec.raised, 1)

	// Newer timestamp but every parameter within epsilon: jitter, skip.
	jitter := first
	jitter.RecordedAt = base.Add(time.Minute)
	jitter.Temperature = first.Temperature + 0.005
	require.NoError(t, engine.Evaluate(context.Background(), jitter))
	assert.Len(t, rec.raised, 1)

	// Newer timestamp with a real move processes again.
	moved := first
	moved.RecordedAt = base.Add(2 * time.Minute)
	moved.Temperature = 35
	require.NoError(t, engine.Evaluate(context.Background(), moved))
	assert.Len(t, rec.raised, 2)

	evaluated, suppressed := engine.Stats()
	assert.Equal(t, uint64(2), evaluated)
	assert.Equal(t, uint64(3), suppressed)
}

func TestEngineMultipleParametersIndependent(t *testing.T) {
	rec := &lifecycleRecorder{}
	engine := NewEngine(defaultSource(), rec, testLogger())

	reading := safeReading(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))
	reading.Temperature = 35 // critical
	reading.PH = 6.2         // warning under default safe band
	require.NoError(t, engine.Evaluate(context.Background(), reading))

	assert.Contains(t, rec.raised, "temperature:critical")
	assert.Contains(t, rec.raised, "ph:warning")
	assert.Contains(t, rec.cleared, "salinity")
	assert.Contains(t, rec.cleared, "dissolved_oxygen")
}
