package thresholds

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	records map[string]Record
	upserts int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]Record{}}
}

func (m *memStore) List(ctx context.Context) (map[string]Record, error) {
	out := make(map[string]Record, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, parameter string) (Record, error) {
	rec, ok := m.records[parameter]
	if !ok {
		return Record{}, ErrUnknownParameter
	}
	return rec, nil
}

func (m *memStore) Upsert(ctx context.Context, rec Record, at time.Time) error {
	rec.UpdatedAt = at
	m.records[rec.Parameter] = rec
	m.upserts++
	return nil
}

func testService(store Store) *Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSeedWritesOnlyMissingParameters(t *testing.T) {
	store := newMemStore()
	custom := Record{
		Parameter: ParamPH,
		SafeMin:   6.8, SafeMax: 8.0,
		WarnMin: 6.2, WarnMax: 8.8,
		Unit: "pH",
	}
	require.NoError(t, store.Upsert(context.Background(), custom, time.Now()))
	store.upserts = 0

	svc := testService(store)
	require.NoError(t, svc.Seed(context.Background()))

	assert.Equal(t, len(Parameters())-1, store.upserts, "the tuned record is left alone")
	assert.Equal(t, 6.8, store.records[ParamPH].SafeMin)

	// Re-running is a no-op.
	require.NoError(t, svc.Seed(context.Background()))
	assert.Equal(t, len(Parameters())-1, store.upserts)
}

func TestAllFallsBackToDefaults(t *testing.T) {
	store := newMemStore()
	svc := testService(store)

	records, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, len(Parameters()))
	assert.Equal(t, 26.0, records[ParamTemperature].SafeMin)
}

func TestUpdateRejectsInvalidWithoutWriting(t *testing.T) {
	store := newMemStore()
	svc := testService(store)

	bad := validRecord()
	bad.SafeMin = 40

	_, err := svc.Update(context.Background(), bad)
	require.Error(t, err)
	assert.Zero(t, store.upserts, "nothing is written when validation fails")
}

func TestUpdateStampsTime(t *testing.T) {
	store := newMemStore()
	svc := testService(store)
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	saved, err := svc.Update(context.Background(), validRecord())
	require.NoError(t, err)
	assert.Equal(t, fixed, saved.UpdatedAt)
	assert.Equal(t, fixed, store.records[ParamTemperature].UpdatedAt)
}
