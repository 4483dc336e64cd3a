package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics observes request latency labelled by route template, so /api/tasks/1
// and /api/tasks/2 share a series and unknown paths collapse into one.
// Websocket upgrades are skipped: their duration is the life of the
// connection, which the realtime client gauge already tracks.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.IsWebsocket() {
			c.Next()
			return
		}

		metrics.HTTPInFlight.Inc()
		defer metrics.HTTPInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
