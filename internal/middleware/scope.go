package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/scope"
)

// ScopeProvider attaches the process-wide team scope to every request
// context. Handlers mounted without it observe an uninitialised scope.
func ScopeProvider(s *scope.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s != nil {
			c.Request = c.Request.WithContext(scope.WithScope(c.Request.Context(), s))
		}
		c.Next()
	}
}
