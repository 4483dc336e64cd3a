// Package response writes the JSON envelope shared by every API route:
// {success, data, error, meta}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/charlesng35/teamflow/pkg/errors"
	"github.com/charlesng35/teamflow/pkg/logger"
)

// Response is the API envelope.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo is the client-facing part of an AppError.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Meta describes a collection: paging for audit listings, the team and graph
// version for task listings.
type Meta struct {
	Page         int    `json:"page,omitempty"`
	PerPage      int    `json:"per_page,omitempty"`
	Total        int    `json:"total"`
	TeamID       string `json:"team_id,omitempty"`
	GraphVersion uint64 `json:"graph_version,omitempty"`
}

// Success writes data with the given status.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{Success: true, Data: data})
}

// SuccessWithMeta writes data along with collection metadata.
func SuccessWithMeta(c *gin.Context, statusCode int, data any, meta *Meta) {
	c.JSON(statusCode, Response{Success: true, Data: data, Meta: meta})
}

// Error renders err. Anything that is not an AppError becomes a 500 whose
// cause is logged and kept out of the body.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		fields := []zap.Field{
			zap.String("route", c.FullPath()),
			zap.String("code", appErr.Code),
			zap.Error(err),
		}
		if c.Request != nil {
			fields = append(fields, zap.String("method", c.Request.Method))
		}
		logger.WithModule("http").Error("request failed", fields...)
	}

	c.JSON(status, Response{
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}
