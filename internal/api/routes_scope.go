package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/handlers"
)

func registerScopeRoutes(api *gin.RouterGroup, scopeHandler *handlers.ScopeHandler) {
	api.GET("/scope", scopeHandler.Get)
	api.PUT("/scope", scopeHandler.Select)
	api.DELETE("/scope", scopeHandler.Clear)
}
