package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamflow/internal/realtime"
)

func TestRealtimeHandlerRejectsUnknownStream(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewRealtimeHandler(realtime.NewHub(), realtime.StreamScope, realtime.StreamTasks)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{gin.Param{Key: "stream", Value: "unknown"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/ws/unknown", nil)

	handler.Stream(c)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRealtimeHandlerWithoutHub(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewRealtimeHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ws", nil)

	handler.Stream(c)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGatherStreamsMergesSources(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{gin.Param{Key: "stream", Value: "Tasks"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/ws/tasks?stream=scope&streams=tasks,%20scope,,", nil)

	require.Equal(t, []string{"tasks", "scope"}, gatherStreams(c))
}
