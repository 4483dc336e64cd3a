// Package testutil wires a complete API over an in-memory database for
// handler tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/teamflow/internal/api"
	"github.com/charlesng35/teamflow/internal/app"
	dbtestutil "github.com/charlesng35/teamflow/internal/database/testutil"
	"github.com/charlesng35/teamflow/internal/monitoring"
	"github.com/charlesng35/teamflow/internal/monitoring/checks"
	"github.com/charlesng35/teamflow/internal/realtime"
	"github.com/charlesng35/teamflow/internal/scope"
	"github.com/charlesng35/teamflow/internal/services"
	"github.com/charlesng35/teamflow/pkg/response"
)

// Env is a router backed by the fixture teams and tasks.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	Scope  *scope.Scope
	Tasks  *services.TaskService
	Hub    *realtime.Hub
}

// NewEnv builds the services the way the server does, minus Redis and the
// maintenance scheduler.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &Env{
		T:     t,
		DB:    dbtestutil.MustOpenTestDB(t, dbtestutil.WithSeedData()),
		Scope: scope.New(),
		Hub:   realtime.NewHub(),
	}
	t.Cleanup(env.Hub.Close)

	audit, err := services.NewAuditService(env.DB)
	require.NoError(t, err)
	teams, err := services.NewTeamService(env.DB, audit)
	require.NoError(t, err)
	env.Tasks, err = services.NewTaskService(env.DB, nil, teams, audit, env.Hub)
	require.NoError(t, err)
	require.NoError(t, env.Tasks.Reload(context.Background()))
	scopes, err := services.NewScopeService(teams, audit, env.Hub)
	require.NoError(t, err)

	health := monitoring.NewHealthManager()
	health.RegisterLiveness(checks.Graph(env.Tasks.Graph(), nil))
	health.RegisterReadiness(checks.Database(env.DB, 0))

	env.Router, err = api.NewRouter(api.Dependencies{
		Config: testConfig(),
		Scope:  env.Scope,
		Teams:  teams,
		Tasks:  env.Tasks,
		Scopes: scopes,
		Audit:  audit,
		Hub:    env.Hub,
		Health: health,
	})
	require.NoError(t, err)
	return env
}

func testConfig() *app.Config {
	return &app.Config{
		Server: app.ServerConfig{Port: 8000},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
		Features: app.FeatureConfig{Realtime: true},
	}
}

// Request sends method path to the router. A non-nil body is sent as JSON.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var payload io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.T, err)
		payload = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// SelectTeam makes teamID the active scope through PUT /api/scope.
func (e *Env) SelectTeam(teamID string) {
	e.T.Helper()
	w := e.Request(http.MethodPut, "/api/scope", map[string]string{"team_id": teamID})
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
}

// APIResponse mirrors response.Response with the data left undecoded.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the envelope written to w.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals an envelope's data into dest.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	require.NotNil(t, dest, "destination must not be nil")
	require.NoError(t, json.Unmarshal(raw, dest), string(raw))
}
