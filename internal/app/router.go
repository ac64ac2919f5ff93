package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/fishda/fishda/internal/access"
	"github.com/fishda/fishda/internal/alerts"
	"github.com/fishda/fishda/internal/analytics"
	"github.com/fishda/fishda/internal/auth"
	"github.com/fishda/fishda/internal/observability"
	"github.com/fishda/fishda/internal/sensors"
	"github.com/fishda/fishda/internal/shared"
	"github.com/fishda/fishda/internal/thresholds"
	"github.com/fishda/fishda/internal/users"
	"github.com/fishda/fishda/jobs"
	"github.com/fishda/fishda/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	Gate              *access.Gate
	AccessHandler     *access.Handler
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	ThresholdsHandler *thresholds.Handler
	SensorsHandler    *sensors.Handler
	AlertsHandler     *alerts.Handler
	AnalyticsHandler  *analytics.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults. The access
// gate runs after the session middleware and before every route, so pages
// and API endpoints alike pass the role matrix.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Gate.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing: authenticated callers go to the dashboard, everyone else to
	// the login page.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess != nil && (sess.IsAuthenticated() || sess.IsGuest()) {
			http.Redirect(w, r, access.PageDashboard, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, access.PageLogin, http.StatusSeeOther)
	})

	// The frontend fetches its CSRF token once per session and replays it in
	// the X-CSRF-Token header on every mutating call.
	r.Get("/api/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"` + token + `"}`))
	})

	r.Route("/api/auth", func(r chi.Router) {
		// Credential endpoints get a much tighter budget than the global
		// limit to slow down guessing.
		if !InTestMode() {
			r.Use(httprate.Limit(15, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		params.AuthHandler.MountRoutes(r)
	})
	r.Route("/api/session", params.AccessHandler.MountRoutes)
	r.Route("/api/users", params.UsersHandler.MountRoutes)
	r.Route("/api/thresholds", params.ThresholdsHandler.MountRoutes)
	r.Route("/api/sensors", params.SensorsHandler.MountRoutes)
	r.Route("/api/alerts", params.AlertsHandler.MountRoutes)
	r.Route("/api/analytics", params.AnalyticsHandler.MountRoutes)
	r.Route("/api/jobs", func(r chi.Router) {
		r.Use(params.Gate.RequireCapability(access.CapViewJobs))
		params.JobHandler.MountRoutes(r)
	})

	r.Get("/ws", params.SensorsHandler.ServeWS)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	pagesFS, err := fs.Sub(web.Pages, "html")
	if err != nil {
		params.Logger.Error("create pages sub filesystem", slog.Any("error", err))
	} else {
		pageServer := http.StripPrefix("/html/", http.FileServer(http.FS(pagesFS)))
		r.Handle("/html/*", pageServer)
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers cache static assets for an hour. Pages
// are served without caching so access changes take effect on reload.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
