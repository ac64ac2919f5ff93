package sensors

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fishda/fishda/internal/access"
	"github.com/fishda/fishda/internal/observability"
	"github.com/fishda/fishda/internal/platform/httpx"
)

// Handler exposes sensor ingest, browsing and export endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *access.Gate
	hub       *Hub
	metrics   *observability.Metrics
	deviceKey string
}

// NewHandler constructs a Handler. deviceKey authenticates pond hardware
// posting readings without a browser session; metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, gate *access.Gate, hub *Hub, metrics *observability.Metrics, deviceKey string) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, hub: hub, metrics: metrics, deviceKey: deviceKey}
}

// MountRoutes attaches sensor routes. Ingest accepts either the device key
// or an admin session; history and export follow their capabilities; the
// latest reading is open to any session for the live dashboard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.deviceOrAdmin).Post("/readings", h.ingest)
	r.With(h.gate.RequireCapability(access.CapViewDashboard)).Get("/latest", h.latest)
	r.With(h.gate.RequireCapability(access.CapViewHistory)).Get("/history", h.history)
	r.With(h.gate.RequireCapability(access.CapExportData)).Get("/export", h.exportCSV)
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	var reading Reading
	if err := httpx.DecodeJSON(r, &reading); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	stored, err := h.service.Ingest(r.Context(), reading)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.metrics.AddReading()
	httpx.JSON(w, http.StatusCreated, stored)
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	reading, err := h.service.Latest(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoReadings) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no readings recorded yet")
			return
		}
		h.logger.Error("latest reading", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, reading)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	filter, err := parseHistoryFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	readings, err := h.service.History(r.Context(), filter)
	if err != nil {
		h.logger.Error("reading history", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if readings == nil {
		readings = []Reading{}
	}
	httpx.JSON(w, http.StatusOK, readings)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := parseHistoryFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	readings, err := h.service.History(r.Context(), filter)
	if err != nil {
		h.logger.Error("export history", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="water-quality.csv"`)
	if err := WriteCSV(w, readings); err != nil {
		h.logger.Error("write csv", slog.Any("error", err))
	}
}

// deviceOrAdmin admits requests bearing the configured device key; anything
// else needs the manage_thresholds capability.
func (h *Handler) deviceOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.deviceKey != "" && r.Header.Get("X-Device-Key") == h.deviceKey {
			next.ServeHTTP(w, r)
			return
		}
		h.gate.RequireCapability(access.CapManageThresholds)(next).ServeHTTP(w, r)
	})
}

// ServeWS upgrades dashboard clients onto the live hub.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeHTTP(w, r)
}

func parseHistoryFilter(r *http.Request) (HistoryFilter, error) {
	var filter HistoryFilter
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("sensors: from must be RFC3339")
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("sensors: to must be RFC3339")
		}
		filter.To = t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return filter, errors.New("sensors: limit must be a positive integer")
		}
		filter.Limit = n
	}
	return filter, nil
}
