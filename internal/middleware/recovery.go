package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/teamflow/internal/auditctx"
	appErrors "github.com/charlesng35/teamflow/pkg/errors"
	"github.com/charlesng35/teamflow/pkg/logger"
	"github.com/charlesng35/teamflow/pkg/metrics"
	"github.com/charlesng35/teamflow/pkg/response"
)

// ErrRouteNotFound is rendered for paths no route matches.
var ErrRouteNotFound = appErrors.New("ROUTE_NOT_FOUND", "route not found", http.StatusNotFound)

// Recovery turns a handler panic into a 500 envelope. The panic value is
// logged with the request id but never sent to the client. A panic caused by
// the client hanging up is logged without a response, and
// http.ErrAbortHandler is re-raised so net/http drops the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			metrics.PanicsRecovered.Inc()

			fields := []zap.Field{
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
			}
			if origin, ok := auditctx.FromContext(c.Request.Context()); ok {
				fields = append(fields, zap.String("request_id", origin.RequestID))
			}
			log := logger.WithModule("http")

			if clientGone(rec) {
				log.Warn("client disconnected mid-response", fields...)
				c.Abort()
				return
			}

			log.Error("handler panicked", append(fields, zap.Stack("stack"))...)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.Error(c, appErrors.ErrInternalServer)
			c.Abort()
		}()
		c.Next()
	}
}

// clientGone reports a write failure caused by the peer closing the socket.
func clientGone(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if errors.As(opErr, &sysErr) {
		return errors.Is(sysErr.Err, syscall.EPIPE) || errors.Is(sysErr.Err, syscall.ECONNRESET)
	}
	return false
}

// NotFoundHandler renders ErrRouteNotFound naming the requested path.
func NotFoundHandler(c *gin.Context) {
	notFound := *ErrRouteNotFound
	notFound.Message = fmt.Sprintf("route %s %s not found", c.Request.Method, c.Request.URL.Path)
	response.Error(c, &notFound)
}
