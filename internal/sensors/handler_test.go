package sensors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishda/fishda/internal/access"
	"github.com/fishda/fishda/internal/observability"
	"github.com/fishda/fishda/internal/shared"
)

type emptyDirectory struct{}

func (emptyDirectory) FindAccount(ctx context.Context, userID string) (access.Account, error) {
	return access.Account{}, access.ErrAccountNotFound
}

func newIngestHarness(t *testing.T) (http.Handler, *observability.Metrics, *memStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	gate := access.NewGate(emptyDirectory{}, sessions, serviceLogger())

	store := &memStore{}
	svc := NewService(store, nil, nil, serviceLogger())
	metrics := observability.NewMetrics()
	handler := NewHandler(serviceLogger(), svc, gate, nil, metrics, "pond-key")

	r := chi.NewRouter()
	r.Route("/api/sensors", handler.MountRoutes)
	return r, metrics, store
}

func TestIngestWithDeviceKeyCountsReading(t *testing.T) {
	router, metrics, store := newIngestHarness(t)

	body := `{"temperature":28,"ph":7.2,"salinity":2,"turbidity":35,"dissolved_oxygen":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/sensors/readings", strings.NewReader(body))
	req.Header.Set("X-Device-Key", "pond-key")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	require.Len(t, store.readings, 1)

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), "fishda_sensor_readings_total 1")
}

func TestIngestRejectedReadingNotCounted(t *testing.T) {
	router, metrics, store := newIngestHarness(t)

	body := `{"temperature":28,"ph":15,"salinity":2,"turbidity":35,"dissolved_oxygen":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/sensors/readings", strings.NewReader(body))
	req.Header.Set("X-Device-Key", "pond-key")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Empty(t, store.readings)

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), "fishda_sensor_readings_total 0")
}

func TestIngestWrongDeviceKeyNeedsCapability(t *testing.T) {
	router, _, store := newIngestHarness(t)

	body := `{"temperature":28,"ph":7.2,"salinity":2,"turbidity":35,"dissolved_oxygen":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/sensors/readings", strings.NewReader(body))
	req.Header.Set("X-Device-Key", "wrong-key")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Empty(t, store.readings)
}
