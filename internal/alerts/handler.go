package alerts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fishda/fishda/internal/access"
	"github.com/fishda/fishda/internal/platform/httpx"
	"github.com/fishda/fishda/internal/shared"
)

// Handler exposes the alert REST surface.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    *access.Gate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, gate *access.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes attaches alert routes. Viewing is open to any session so the
// dashboard badge works for guests; resolving requires manage_alerts.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.gate.RequireCapability(access.CapViewDashboard)).Get("/active", h.listActive)
	r.With(h.gate.RequireCapability(access.CapViewHistory)).Get("/history", h.listHistory)

	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireCapability(access.CapManageAlerts))
		r.Post("/{id}/acknowledge", h.acknowledge)
		r.Post("/{id}/dismiss", h.dismiss)
		r.Post("/acknowledge-all", h.acknowledgeAll)
	})
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ListActive(r.Context())
	if err != nil {
		h.logger.Error("list active alerts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	httpx.JSON(w, http.StatusOK, alerts)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be a positive integer")
			return
		}
		limit = n
	}
	records, err := h.service.ListHistory(r.Context(), limit)
	if err != nil {
		h.logger.Error("list alert history", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if records == nil {
		records = []HistoryRecord{}
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Acknowledge(r.Context(), id, actorFrom(r)); err != nil {
		h.respondResolveError(w, id, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "acknowledged", "id": id})
}

func (h *Handler) dismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Dismiss(r.Context(), id, actorFrom(r)); err != nil {
		h.respondResolveError(w, id, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "dismissed", "id": id})
}

func (h *Handler) acknowledgeAll(w http.ResponseWriter, r *http.Request) {
	resolved, err := h.service.AcknowledgeAll(r.Context(), actorFrom(r))
	if err != nil {
		h.logger.Error("acknowledge all alerts", slog.Int("resolved", resolved), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Partial Failure",
			"some alerts could not be acknowledged; resolved "+strconv.Itoa(resolved))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"acknowledged": resolved})
}

func (h *Handler) respondResolveError(w http.ResponseWriter, id string, err error) {
	if !errors.Is(err, ErrAlertNotFound) {
		h.logger.Error("resolve alert", slog.String("id", id), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func actorFrom(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if id := sess.User(); id != "" {
			return id
		}
	}
	return "unknown"
}
