package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)

	require.Equal(t, "postgres", cfg.Database.Driver)
	db := cfg.DatabaseSettings()
	require.Equal(t, "db.example.com", db.Host)
	require.Equal(t, 5433, db.Port)
	require.Equal(t, "teamflow", db.Name)
	require.Equal(t, "teamflow", db.User)
	require.Equal(t, "require", db.Options["sslmode"])

	require.True(t, cfg.Cache.Redis.Enabled)
	redis := cfg.RedisSettings()
	require.Equal(t, "redis.example.com:6380", redis.Address)
	require.Equal(t, 3*time.Second, redis.Timeout)
	require.Equal(t, "teamflow:staging", redis.Channel)

	require.True(t, cfg.Features.SeedFixtures)
	require.True(t, cfg.Features.Realtime)
	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, "*/15 * * * *", cfg.Maintenance.IntegritySchedule)
	require.Equal(t, "@daily", cfg.Maintenance.AuditSchedule)
	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/teamflow.sqlite", cfg.DatabaseSettings().Path)
	require.Equal(t, 200*time.Millisecond, cfg.DatabaseSettings().SlowQuery)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "teamflow:events", cfg.RedisSettings().Channel)
	require.Equal(t, "@hourly", cfg.Maintenance.IntegritySchedule)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, 15*time.Minute, cfg.Maintenance.JobGrace)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestLoadConfigExplicitFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "teamflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o600))

	t.Setenv("TEAMFLOW_FEATURES_SEED_FIXTURES", "true")
	t.Setenv("TEAMFLOW_DATABASE_PATH", "/tmp/override.sqlite")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 7000, cfg.Server.Port)
	require.True(t, cfg.Features.SeedFixtures)
	require.Equal(t, "/tmp/override.sqlite", cfg.Database.Path)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{
		Server:   ServerConfig{Port: 8000},
		Database: DatabaseConfig{Driver: "sqlite"},
	}
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Database.Driver = "oracle"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Server.Port = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Maintenance = MaintenanceConfig{Enabled: true}
	require.Error(t, bad.Validate())
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
}
