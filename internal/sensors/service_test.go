package sensors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	readings  []Reading
	insertErr error
	filters   []HistoryFilter
}

func (m *memStore) Insert(ctx context.Context, reading *Reading) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	reading.ID = int64(len(m.readings) + 1)
	m.readings = append(m.readings, *reading)
	return nil
}

func (m *memStore) Latest(ctx context.Context) (Reading, error) {
	if len(m.readings) == 0 {
		return Reading{}, ErrNoReadings
	}
	return m.readings[len(m.readings)-1], nil
}

func (m *memStore) History(ctx context.Context, filter HistoryFilter) ([]Reading, error) {
	m.filters = append(m.filters, filter)
	return m.readings, nil
}

type feedRecorder struct {
	published []Reading
	err       error
}

func (f *feedRecorder) Publish(ctx context.Context, reading Reading) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, reading)
	return nil
}

type bumpRecorder struct {
	bumps int
}

func (b *bumpRecorder) Bump(ctx context.Context) error {
	b.bumps++
	return nil
}

func serviceLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okReading() Reading {
	return Reading{Temperature: 28, PH: 7.2, Salinity: 2, Turbidity: 35, DissolvedOxygen: 7}
}

func TestIngestPersistsPublishesAndBumps(t *testing.T) {
	store := &memStore{}
	feed := &feedRecorder{}
	bumper := &bumpRecorder{}
	svc := NewService(store, feed, bumper, serviceLogger())

	at := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	in := okReading()
	in.RecordedAt = at

	saved, err := svc.Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, at, saved.RecordedAt)
	require.Len(t, store.readings, 1)
	require.Len(t, feed.published, 1)
	assert.Equal(t, 1, bumper.bumps)
}

func TestIngestDefaultsRecordedAt(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, nil, nil, serviceLogger())
	fixed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	saved, err := svc.Ingest(context.Background(), okReading())
	require.NoError(t, err)
	assert.Equal(t, fixed, saved.RecordedAt)
}

func TestIngestValidation(t *testing.T) {
	svc := NewService(&memStore{}, nil, nil, serviceLogger())

	tests := []struct {
		name   string
		mutate func(*Reading)
	}{
		{"ph below scale", func(r *Reading) { r.PH = -0.1 }},
		{"ph above scale", func(r *Reading) { r.PH = 14.2 }},
		{"negative turbidity", func(r *Reading) { r.Turbidity = -1 }},
		{"negative salinity", func(r *Reading) { r.Salinity = -0.5 }},
		{"negative dissolved oxygen", func(r *Reading) { r.DissolvedOxygen = -2 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := okReading()
			tc.mutate(&in)
			_, err := svc.Ingest(context.Background(), in)
			assert.Error(t, err)
		})
	}
}

func TestIngestSurvivesFeedFailure(t *testing.T) {
	// The store is the system of record; a dead feed must not reject data.
	store := &memStore{}
	feed := &feedRecorder{err: errors.New("redis down")}
	svc := NewService(store, feed, nil, serviceLogger())

	_, err := svc.Ingest(context.Background(), okReading())
	require.NoError(t, err)
	assert.Len(t, store.readings, 1)
}

func TestIngestFailsWhenStoreFails(t *testing.T) {
	store := &memStore{insertErr: errors.New("constraint violation")}
	feed := &feedRecorder{}
	svc := NewService(store, feed, nil, serviceLogger())

	_, err := svc.Ingest(context.Background(), okReading())
	require.Error(t, err)
	assert.Empty(t, feed.published, "nothing is published for a reading that was never stored")
}

func TestHistoryDefaultsToLastDay(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, nil, nil, serviceLogger())
	fixed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	_, err := svc.History(context.Background(), HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, store.filters, 1)
	assert.Equal(t, fixed, store.filters[0].To)
	assert.Equal(t, fixed.Add(-24*time.Hour), store.filters[0].From)
}

func TestHistoryRejectsInvertedWindow(t *testing.T) {
	svc := NewService(&memStore{}, nil, nil, serviceLogger())

	_, err := svc.History(context.Background(), HistoryFilter{
		From: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}
