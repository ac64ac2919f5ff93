package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourly(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestSummarize(t *testing.T) {
	s := Summarize("temperature", []float64{28, 30, 26, 32})
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 26.0, s.Min)
	assert.Equal(t, 32.0, s.Max)
	assert.Equal(t, 29.0, s.Mean)
	assert.Equal(t, 32.0, s.Latest)
	assert.Greater(t, s.StdDev, 0.0)

	empty := Summarize("ph", nil)
	assert.Equal(t, 0, empty.Count)
	assert.Zero(t, empty.Mean)
}

func TestFitTrendRisingLine(t *testing.T) {
	start := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	times := hourly(start, 5)
	// Exactly linear: 26 + 0.5 per hour.
	values := []float64{26, 26.5, 27, 27.5, 28}

	trend := FitTrend("temperature", values, times, 2)
	assert.Equal(t, "rising", trend.Direction)
	assert.InDelta(t, 0.5, trend.SlopePerHour, 1e-9)
	assert.InDelta(t, 26, trend.Intercept, 1e-9)

	require.Len(t, trend.Forecast, 2)
	assert.InDelta(t, 28.5, trend.Forecast[0].Value, 1e-9)
	assert.InDelta(t, 29, trend.Forecast[1].Value, 1e-9)
	assert.Equal(t, times[4].Add(time.Hour), trend.Forecast[0].At)
}

func TestFitTrendFlatAndDegenerate(t *testing.T) {
	start := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	flat := FitTrend("ph", []float64{7, 7, 7, 7}, hourly(start, 4), 3)
	assert.Equal(t, "stable", flat.Direction)
	assert.InDelta(t, 0, flat.SlopePerHour, 1e-9)

	single := FitTrend("ph", []float64{7.2}, hourly(start, 1), 3)
	assert.Equal(t, "stable", single.Direction)
	assert.Equal(t, 7.2, single.Intercept)
	assert.Empty(t, single.Forecast)

	none := FitTrend("ph", nil, nil, 3)
	assert.Equal(t, "stable", none.Direction)
}

func TestCorrelate(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	up := []float64{2, 4, 6, 8, 10}
	down := []float64{10, 8, 6, 4, 2}

	coeff, ok := Correlate(a, up)
	require.True(t, ok)
	assert.InDelta(t, 1, coeff, 1e-9)

	coeff, ok = Correlate(a, down)
	require.True(t, ok)
	assert.InDelta(t, -1, coeff, 1e-9)

	_, ok = Correlate(a, []float64{3, 3, 3, 3, 3})
	assert.False(t, ok, "constant series has no defined correlation")

	_, ok = Correlate([]float64{1}, []float64{2})
	assert.False(t, ok)
}

func TestDetectAnomalies(t *testing.T) {
	start := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	values := []float64{7, 7.1, 6.9, 7, 7.05, 6.95, 7, 12, 7.1, 6.9}
	times := hourly(start, len(values))

	points := DetectAnomalies(values, times)
	require.Len(t, points, 1)
	assert.Equal(t, 12.0, points[0].Value)
	assert.Equal(t, times[7], points[0].At)
	assert.Greater(t, points[0].ZScore, zScoreCutoff)

	assert.Nil(t, DetectAnomalies([]float64{7, 7}, hourly(start, 2)))
	assert.Nil(t, DetectAnomalies([]float64{7, 7, 7, 7}, hourly(start, 4)))
}
