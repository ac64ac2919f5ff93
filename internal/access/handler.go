package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fishda/fishda/internal/platform/httpx"
	"github.com/fishda/fishda/internal/shared"
)

// Handler exposes session introspection consumed by every page: the
// effective role, capability set and navigation menu. Advisory only; the
// gate middleware remains the enforcement boundary.
type Handler struct {
	gate *Gate
}

// NewHandler constructs a Handler.
func NewHandler(gate *Gate) *Handler {
	return &Handler{gate: gate}
}

// MountRoutes attaches session introspection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.currentSession)
	r.Get("/navigation", h.navigation)
}

type sessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	Guest         bool            `json:"guest"`
	UserID        string          `json:"userId,omitempty"`
	Role          Role            `json:"role"`
	Capabilities  map[string]bool `json:"capabilities"`
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	role := h.gate.CurrentRole(r.Context())
	resp := sessionResponse{
		Role:         role,
		Capabilities: capabilitySnapshot(role),
	}
	if sess != nil {
		resp.Authenticated = sess.IsAuthenticated()
		resp.Guest = sess.IsGuest()
		resp.UserID = sess.User()
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) navigation(w http.ResponseWriter, r *http.Request) {
	role := h.gate.CurrentRole(r.Context())
	current := r.URL.Query().Get("current")
	httpx.JSON(w, http.StatusOK, NavigationFor(role, current))
}

func capabilitySnapshot(role Role) map[string]bool {
	caps, ok := capabilities[role]
	if !ok {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(caps))
	for name, granted := range caps {
		out[name] = granted
	}
	return out
}
