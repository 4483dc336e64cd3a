package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/app"
	"github.com/charlesng35/teamflow/internal/handlers"
	"github.com/charlesng35/teamflow/internal/monitoring"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, manager *monitoring.HealthManager) {
	handler := handlers.NewHealthHandler(manager)
	if !cfg.Monitoring.Health.Enabled || handler == nil {
		r.GET("/health", handlers.DisabledHealth)
		r.GET("/health/live", handlers.DisabledHealth)
		r.GET("/health/ready", handlers.DisabledHealth)
		return
	}

	r.GET("/health", handler.Summary)
	r.GET("/health/live", handler.Live)
	r.GET("/health/ready", handler.Ready)
}
