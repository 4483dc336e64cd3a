package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/teamflow/internal/app"
	"github.com/charlesng35/teamflow/internal/handlers"
	"github.com/charlesng35/teamflow/internal/middleware"
	"github.com/charlesng35/teamflow/internal/monitoring"
	"github.com/charlesng35/teamflow/internal/realtime"
	"github.com/charlesng35/teamflow/internal/scope"
	"github.com/charlesng35/teamflow/internal/services"
)

// Dependencies carries the wired services the router mounts.
type Dependencies struct {
	Config *app.Config
	Scope  *scope.Scope
	Teams  *services.TeamService
	Tasks  *services.TaskService
	Scopes *services.ScopeService
	Audit  *services.AuditService
	Hub    *realtime.Hub
	Health *monitoring.HealthManager
}

func (d Dependencies) validate() error {
	switch {
	case d.Config == nil:
		return errors.New("config must be provided")
	case d.Scope == nil:
		return errors.New("scope must be provided")
	case d.Teams == nil, d.Tasks == nil, d.Scopes == nil, d.Audit == nil:
		return errors.New("team, task, scope and audit services must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Origin())
	r.Use(middleware.ScopeProvider(deps.Scope))
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))

	registerHealthRoutes(r, cfg, deps.Health)

	api := r.Group("/api")

	teamHandler, err := handlers.NewTeamHandler(deps.Teams, deps.Tasks)
	if err != nil {
		return nil, err
	}
	registerTeamRoutes(api, teamHandler)

	taskHandler, err := handlers.NewTaskHandler(deps.Tasks)
	if err != nil {
		return nil, err
	}
	registerTaskRoutes(api, taskHandler)

	scopeHandler, err := handlers.NewScopeHandler(deps.Scopes)
	if err != nil {
		return nil, err
	}
	registerScopeRoutes(api, scopeHandler)

	auditHandler, err := handlers.NewAuditHandler(deps.Audit)
	if err != nil {
		return nil, err
	}
	registerAuditRoutes(api, auditHandler)

	if cfg.Features.Realtime && deps.Hub != nil {
		registerRealtimeRoutes(r, handlers.NewRealtimeHandler(deps.Hub, realtime.StreamScope, realtime.StreamTasks))
	}

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
