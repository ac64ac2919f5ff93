package analytics

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls  int
	values []float64
	times  []time.Time
}

func (c *countingSource) Series(_ context.Context, _ string, _, _ time.Time) ([]float64, []time.Time, error) {
	c.calls++
	return c.values, c.times, nil
}

func newCachedService(t *testing.T, source SeriesSource) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(source, cache, logger), cache
}

func TestOverviewCachesUntilBump(t *testing.T) {
	start := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	source := &countingSource{values: []float64{28, 29, 30}, times: hourly(start, 3)}
	svc, cache := newCachedService(t, source)
	window := Window{From: start, To: start.Add(3 * time.Hour)}

	first, err := svc.Overview(context.Background(), window)
	require.NoError(t, err)
	require.Len(t, first, 5)
	loadsPerOverview := source.calls
	require.Greater(t, loadsPerOverview, 0)

	// Same window again: served from cache, the source is not touched.
	second, err := svc.Overview(context.Background(), window)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, loadsPerOverview, source.calls)

	// A version bump retires every cached entry.
	require.NoError(t, cache.Bump(context.Background()))
	_, err = svc.Overview(context.Background(), window)
	require.NoError(t, err)
	assert.Equal(t, 2*loadsPerOverview, source.calls)
}

func TestTrendUnknownParameter(t *testing.T) {
	svc, _ := newCachedService(t, &countingSource{})
	_, err := svc.Trend(context.Background(), "oxygen_level", Window{}, 6)
	require.Error(t, err)
}

func TestWindowOverHoursClamps(t *testing.T) {
	svc, _ := newCachedService(t, &countingSource{})

	w := svc.WindowOverHours(0)
	assert.Equal(t, 24*time.Hour, w.To.Sub(w.From))

	w = svc.WindowOverHours(10000)
	assert.Equal(t, 24*time.Hour, w.To.Sub(w.From))

	w = svc.WindowOverHours(6)
	assert.Equal(t, 6*time.Hour, w.To.Sub(w.From))
	assert.Equal(t, w.To, w.To.Truncate(time.Minute))
}
