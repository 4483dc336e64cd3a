package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/handlers"
)

func registerTeamRoutes(api *gin.RouterGroup, teamHandler *handlers.TeamHandler) {
	teams := api.Group("/teams")
	{
		teams.GET("", teamHandler.List)
		teams.GET("/:id", teamHandler.Get)
		teams.POST("", teamHandler.Create)
		teams.PATCH("/:id", teamHandler.Update)
		teams.DELETE("/:id", teamHandler.Delete)
		teams.GET("/:id/tasks", teamHandler.Tasks)
		teams.GET("/:id/conflicts", teamHandler.Conflicts)
	}
}
