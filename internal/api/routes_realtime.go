package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/handlers"
)

func registerRealtimeRoutes(r *gin.Engine, realtimeHandler *handlers.RealtimeHandler) {
	r.GET("/ws", realtimeHandler.Stream)
	r.GET("/ws/:stream", realtimeHandler.Stream)
}
