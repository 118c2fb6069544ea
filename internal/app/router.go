package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/odyssey-lite/internal/auth"
	"github.com/odyssey-erp/odyssey-lite/internal/observability"
	"github.com/odyssey-erp/odyssey-lite/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-lite/internal/rbac"
	"github.com/odyssey-erp/odyssey-lite/internal/shared"
	"github.com/odyssey-erp/odyssey-lite/internal/users"
	"github.com/odyssey-erp/odyssey-lite/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthService    *auth.Service
	AuthHandler    *auth.Handler
	UsersHandler   *users.Handler
	RBACHandler    *rbac.Handler
	RBACMiddleware rbac.Middleware
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

type dashboardResponse struct {
	User  *shared.Identity `json:"user"`
	Error string           `json:"error,omitempty"`
}

// NewRouter constructs the chi.Router with Odyssey defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	if params.Logger == nil {
		params.Logger = slog.New(slog.DiscardHandler)
	}

	var identify func(http.Handler) http.Handler
	if params.AuthService != nil {
		identify = auth.Identify(params.AuthService, params.Logger)
	}
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
		Identify:       identify,
	}) {
		r.Use(mw)
	}

	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	// Landing target of the authorization redirects.
	r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, dashboardResponse{
			User:  shared.IdentityFromContext(r.Context()),
			Error: r.URL.Query().Get("error"),
		})
	})

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		if params.RBACHandler != nil {
			params.RBACHandler.MountRoutes(r)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r)
		}
	})

	if params.RBACMiddleware.Service != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireSuperAdmin)
			if params.RBACHandler != nil {
				params.RBACHandler.MountAdminRoutes(r)
			}
			if params.UsersHandler != nil {
				params.UsersHandler.MountAdminRoutes(r)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountAdminRoutes)
			}
		})
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
