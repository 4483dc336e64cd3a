package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/handlers"
)

func registerTaskRoutes(api *gin.RouterGroup, taskHandler *handlers.TaskHandler) {
	tasks := api.Group("/tasks")
	{
		tasks.GET("", taskHandler.List)
		tasks.POST("", taskHandler.Create)
		tasks.POST("/import", taskHandler.Import)
		tasks.GET("/:id", taskHandler.Get)
		tasks.PATCH("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
		tasks.GET("/:id/chain", taskHandler.Chain)
	}
}
