package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/teamflow/internal/auditctx"
	"github.com/charlesng35/teamflow/internal/scope"
	"github.com/charlesng35/teamflow/pkg/logger"
)

// Logger writes a concise structured access log for each request, tagged
// with the request id and the team selected when the request completed.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if origin, ok := auditctx.FromContext(c.Request.Context()); ok && origin.RequestID != "" {
			fields = append(fields, zap.String("request_id", origin.RequestID))
		}
		if s, err := scope.FromContext(c.Request.Context()); err == nil {
			if teamID := s.ActiveID(); teamID != "" {
				fields = append(fields, zap.String("team_id", teamID))
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		logger.WithModule("http").Info("request", fields...)
	}
}
