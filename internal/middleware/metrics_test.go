package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamflow/pkg/metrics"
)

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var inFlight float64
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/tasks/:id", func(c *gin.Context) {
		inFlight = testutil.ToFloat64(metrics.HTTPInFlight)
		c.Status(http.StatusOK)
	})

	before := testutil.CollectAndCount(metrics.APILatency)
	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tasks/"+id, nil))
	}
	for _, path := range []string{"/nowhere/x", "/nowhere/y"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.LessOrEqual(t, testutil.CollectAndCount(metrics.APILatency), before+2)
	require.GreaterOrEqual(t, inFlight, float64(1))
	require.Zero(t, testutil.ToFloat64(metrics.HTTPInFlight))
}

func TestMetricsMiddlewareSkipsWebsocketUpgrades(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/ws-metrics-probe", func(c *gin.Context) {
		c.Status(http.StatusSwitchingProtocols)
	})

	before := testutil.CollectAndCount(metrics.APILatency)
	req := httptest.NewRequest(http.MethodGet, "/ws-metrics-probe", nil)
	req.Header.Set("Connection", "upgrade")
	req.Header.Set("Upgrade", "websocket")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, before, testutil.CollectAndCount(metrics.APILatency))
}
