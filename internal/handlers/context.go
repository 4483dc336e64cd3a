package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/teamflow/pkg/errors"
	"github.com/charlesng35/teamflow/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// pathID reads a required path parameter, writing a 400 when it is blank.
func pathID(c *gin.Context, name string) (string, bool) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" {
		response.Error(c, appErrors.NewBadRequest(name+" is required"))
		return "", false
	}
	return id, true
}
