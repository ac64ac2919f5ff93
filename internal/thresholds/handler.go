package thresholds

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fishda/fishda/internal/access"
	"github.com/fishda/fishda/internal/platform/httpx"
)

// Handler exposes threshold configuration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    *access.Gate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, gate *access.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes attaches threshold routes. Reading is open to any session;
// edits require the manage_thresholds capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.With(h.gate.RequireCapability(access.CapManageThresholds)).Put("/{parameter}", h.update)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.All(r.Context())
	if err != nil {
		h.logger.Error("list thresholds", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	ordered := make([]Record, 0, len(records))
	for _, p := range Parameters() {
		if rec, ok := records[p]; ok {
			ordered = append(ordered, rec)
		}
	}
	httpx.JSON(w, http.StatusOK, ordered)
}

type updateRequest struct {
	SafeMin float64 `json:"safeMin"`
	SafeMax float64 `json:"safeMax"`
	WarnMin float64 `json:"warnMin"`
	WarnMax float64 `json:"warnMax"`
	Unit    string  `json:"unit"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	parameter := strings.TrimSpace(chi.URLParam(r, "parameter"))
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	rec := Record{
		Parameter: parameter,
		SafeMin:   req.SafeMin,
		SafeMax:   req.SafeMax,
		WarnMin:   req.WarnMin,
		WarnMax:   req.WarnMax,
		Unit:      req.Unit,
	}
	updated, err := h.service.Update(r.Context(), rec)
	if err != nil {
		if errors.Is(err, ErrUnknownParameter) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		// Validation errors carry the parameter and comparison already.
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}
