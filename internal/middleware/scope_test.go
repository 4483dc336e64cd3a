package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamflow/internal/auditctx"
	"github.com/charlesng35/teamflow/internal/scope"
)

func TestScopeProviderAttachesScope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := scope.New()
	var got *scope.Scope

	r := gin.New()
	r.Use(ScopeProvider(s))
	r.GET("/scoped", func(c *gin.Context) {
		var err error
		got, err = scope.FromContext(c.Request.Context())
		require.NoError(t, err)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scoped", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Same(t, s, got)
}

func TestScopeProviderNilLeavesScopeUninitialised(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var err error
	r := gin.New()
	r.Use(ScopeProvider(nil))
	r.GET("/scoped", func(c *gin.Context) {
		_, err = scope.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/scoped", nil))
	require.True(t, errors.Is(err, scope.ErrUninitializedScope))
}

func TestOriginMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var origin auditctx.Origin
	r := gin.New()
	r.Use(Origin())
	r.GET("/who", func(c *gin.Context) {
		var ok bool
		origin, ok = auditctx.FromContext(c.Request.Context())
		require.True(t, ok)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("User-Agent", "teamflow-test")
	r.ServeHTTP(w, req)

	require.NotEmpty(t, origin.RequestID)
	require.Equal(t, origin.RequestID, w.Header().Get(RequestIDHeader))
	require.Equal(t, "teamflow-test", origin.UserAgent)
	require.Equal(t, "192.0.2.1", origin.IPAddress)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	r.ServeHTTP(w, req)
	require.Equal(t, "upstream-id", origin.RequestID)
}
