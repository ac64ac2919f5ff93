package users

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fishda/fishda/internal/access"
	"github.com/fishda/fishda/internal/platform/httpx"
)

// Handler exposes admin user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    *access.Gate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, gate *access.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes attaches user management routes. All of them require the
// manage_users capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.gate.RequireCapability(access.CapManageUsers))
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}/role", h.setRole)
	r.Put("/{id}/status", h.setStatus)
}

type userResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	RoleUpdatedAt *time.Time `json:"roleUpdatedAt,omitempty"`
}

func toResponse(u User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
		RoleUpdatedAt: u.RoleUpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(user))
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Role string `json:"role"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.SetRole(r.Context(), id, req.Role); err != nil {
		h.respondError(w, err)
		return
	}
	h.gate.InvalidateAccount(id)
	httpx.JSON(w, http.StatusOK, map[string]string{"id": id, "role": req.Role})
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.SetStatus(r.Context(), id, req.Status); err != nil {
		h.respondError(w, err)
		return
	}
	h.gate.InvalidateAccount(id)
	httpx.JSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}

// respondError hands the mapping to httpx.RespondError; the domain
// sentinels carry their status via the wrapped httpx sentinel.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if !errors.Is(err, ErrUserNotFound) && !errors.Is(err, ErrInvalidRole) && !errors.Is(err, ErrInvalidStatus) {
		h.logger.Error("users handler", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
