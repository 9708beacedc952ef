package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wasteer/wasteer/internal/auth"
	"github.com/wasteer/wasteer/internal/authz"
	"github.com/wasteer/wasteer/internal/identity"
	"github.com/wasteer/wasteer/internal/metrics"
	"github.com/wasteer/wasteer/internal/waste"
)

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Identity *identity.Store
	Sessions *auth.Store
	Waste    *waste.Service
	Metrics  *metrics.Metrics

	DefaultRole    string
	AllowedOrigins []string
	LoginLimit     int
	LoginWindow    time.Duration
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))
	r.Use(slogRequestLogger)
	r.Use(metricsMiddleware(deps.Metrics))

	// Handlers.
	authH := newAuthHandler(deps.Identity, deps.Sessions, deps.Metrics, deps.DefaultRole)
	usersH := newUsersHandler(deps.Identity)
	teamsH := newTeamsHandler(deps.Identity)
	rolesH := newRolesHandler(deps.Identity)
	permsH := newPermissionsHandler(deps.Identity)
	wasteH := newWasteHandler(deps.Waste, deps.Metrics)

	authed := auth.Middleware(deps.Sessions, deps.Identity)

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus exposition plus a condensed JSON view.
	r.Get("/metrics", promhttp.HandlerFor(
		deps.Metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/metrics/summary", deps.Metrics.SummaryHandler())

	r.Route("/api/v1", func(v1 chi.Router) {
		// Credential endpoints get a per-IP rate limit.
		v1.Group(func(g chi.Router) {
			g.Use(httprate.LimitByIP(deps.LoginLimit, deps.LoginWindow))
			g.Post("/auth/register", authH.Register)
			g.Post("/auth/login", authH.Login)
		})

		v1.Group(func(g chi.Router) {
			g.Use(authed)

			g.Post("/auth/logout", authH.Logout)
			g.Get("/auth/profile", authH.Profile)

			g.Route("/waste", func(wr chi.Router) {
				wr.Post("/", wasteH.Create)
				wr.Get("/", wasteH.List)
				wr.With(authz.Require(authz.OpWasteAnalytics)).
					Get("/analytics", wasteH.Analytics)
				wr.Get("/{id}", wasteH.Get)
				wr.Put("/{id}", wasteH.Update)
				wr.Delete("/{id}", wasteH.Delete)
			})

			g.Route("/users", func(ur chi.Router) {
				ur.With(authz.Require(authz.OpUsersList)).Get("/", usersH.List)
				ur.Put("/me", usersH.UpdateSelf)
				ur.With(authz.Require(authz.OpUsersGet)).Get("/{id}", usersH.Get)
				ur.With(authz.Require(authz.OpUsersEdit)).Put("/{id}", usersH.Update)
				ur.With(authz.Require(authz.OpUsersDelete)).Delete("/{id}", usersH.Delete)
			})

			g.Route("/teams", func(tr chi.Router) {
				tr.With(authz.Require(authz.OpTeamsCreate)).Post("/", teamsH.Create)
				tr.With(authz.Require(authz.OpTeamsList)).Get("/", teamsH.List)
				tr.With(authz.Require(authz.OpTeamsGet)).Get("/{id}", teamsH.Get)
				tr.With(authz.Require(authz.OpTeamsEdit)).Put("/{id}", teamsH.Update)
				tr.With(authz.Require(authz.OpTeamsDelete)).Delete("/{id}", teamsH.Delete)
				tr.With(authz.Require(authz.OpTeamsMembers)).Get("/{id}/members", teamsH.Members)
			})

			g.Route("/roles", func(rr chi.Router) {
				rr.With(authz.Require(authz.OpRolesList)).Get("/", rolesH.List)
				rr.With(authz.Require(authz.OpRolesCreate)).Post("/", rolesH.Create)
				rr.With(authz.Require(authz.OpRolesGet)).Get("/{id}", rolesH.Get)
				rr.With(authz.Require(authz.OpRolesEdit)).Put("/{id}", rolesH.Update)
				rr.With(authz.Require(authz.OpRolesDelete)).Delete("/{id}", rolesH.Delete)
			})

			g.Route("/permissions", func(pr chi.Router) {
				pr.With(authz.Require(authz.OpPermissionsList)).Get("/", permsH.List)
				pr.With(authz.Require(authz.OpPermissionsGet)).Get("/{id}", permsH.Get)
			})
		})
	})

	return r
}
