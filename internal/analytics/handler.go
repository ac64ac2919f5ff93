package analytics

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fishda/fishda/internal/access"
	"github.com/fishda/fishda/internal/platform/httpx"
	"github.com/fishda/fishda/internal/thresholds"
)

// Handler exposes the analytics REST surface.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    *access.Gate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, gate *access.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes attaches analytics routes behind the view_analytics
// capability, which every role carries.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.gate.RequireCapability(access.CapViewAnalytics))
	r.Get("/overview", h.overview)
	r.Get("/trend/{parameter}", h.trend)
	r.Get("/correlations", h.correlations)
	r.Get("/anomalies/{parameter}", h.anomalies)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	summaries, err := h.service.Overview(r.Context(), window)
	if err != nil {
		h.logger.Error("analytics overview", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, summaries)
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	forecast := 0
	if raw := r.URL.Query().Get("forecast"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "forecast must be a positive integer of hours")
			return
		}
		forecast = n
	}
	trend, err := h.service.Trend(r.Context(), chi.URLParam(r, "parameter"), window, forecast)
	if err != nil {
		if errors.Is(err, thresholds.ErrUnknownParameter) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("analytics trend", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, trend)
}

func (h *Handler) correlations(w http.ResponseWriter, r *http.Request) {
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	pairs, err := h.service.Correlations(r.Context(), window)
	if err != nil {
		h.logger.Error("analytics correlations", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if pairs == nil {
		pairs = []CorrelationPair{}
	}
	httpx.JSON(w, http.StatusOK, pairs)
}

func (h *Handler) anomalies(w http.ResponseWriter, r *http.Request) {
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	points, err := h.service.Anomalies(r.Context(), chi.URLParam(r, "parameter"), window)
	if err != nil {
		if errors.Is(err, thresholds.ErrUnknownParameter) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("analytics anomalies", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if points == nil {
		points = []AnomalyPoint{}
	}
	httpx.JSON(w, http.StatusOK, points)
}

func (h *Handler) parseWindow(w http.ResponseWriter, r *http.Request) (Window, bool) {
	hours := 0
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "hours must be a positive integer")
			return Window{}, false
		}
		hours = n
	}
	return h.service.WindowOverHours(hours), true
}
