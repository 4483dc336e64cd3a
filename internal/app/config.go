package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/charlesng35/teamflow/internal/database"
	"github.com/charlesng35/teamflow/internal/messaging"
)

// Config represents the runtime configuration for the teamflow backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Features    FeatureConfig     `mapstructure:"features"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	LogEncoding     string        `mapstructure:"log_encoding"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`

	// SlowQuery logs queries slower than this; negative disables query logs.
	SlowQuery time.Duration `mapstructure:"slow_query"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Database string            `mapstructure:"database"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	Options  map[string]string `mapstructure:"options"`
}

// CacheConfig describes cache backends.
type CacheConfig struct {
	Redis RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options. Redis carries realtime
// events between server instances.
type RedisCacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Channel  string        `mapstructure:"channel"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// FeatureConfig toggles optional features.
type FeatureConfig struct {
	SeedFixtures bool `mapstructure:"seed_fixtures"`
	Realtime     bool `mapstructure:"realtime"`
}

// MaintenanceConfig schedules background jobs. Schedules use cron syntax,
// including descriptors such as @hourly. JobGrace is how late a scheduled run
// may be before readiness degrades.
type MaintenanceConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	IntegritySchedule  string        `mapstructure:"integrity_schedule"`
	AuditSchedule      string        `mapstructure:"audit_schedule"`
	AuditRetentionDays int           `mapstructure:"audit_retention_days"`
	JobGrace           time.Duration `mapstructure:"job_grace"`
}

// LoadConfig initialises application configuration using Viper with sensible
// defaults. A path ending in .yaml or .yml is read as the config file itself;
// any other path is searched for config.yaml.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			v.SetConfigFile(path)
			continue
		}
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("TEAMFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Maintenance.Enabled && c.Maintenance.AuditRetentionDays <= 0 {
		return errors.New("config: maintenance.audit_retention_days must be positive")
	}
	return nil
}

// DatabaseSettings converts the database section into the database package representation.
func (c *Config) DatabaseSettings() database.Config {
	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	cfg := database.Config{
		Driver: driver,
		Path:   strings.TrimSpace(c.Database.Path),
		DSN:    strings.TrimSpace(c.Database.DSN),

		SlowQuery: c.Database.SlowQuery,
	}

	var auth DBAuthConfig
	switch driver {
	case "postgres":
		auth = c.Database.Postgres
	case "mysql":
		auth = c.Database.MySQL
	default:
		return cfg
	}

	cfg.Host = strings.TrimSpace(auth.Host)
	cfg.Port = auth.Port
	cfg.Name = strings.TrimSpace(auth.Database)
	cfg.User = strings.TrimSpace(auth.Username)
	cfg.Password = auth.Password
	cfg.Options = auth.Options
	return cfg
}

// RedisSettings converts the cache configuration into the messaging package representation.
func (c *Config) RedisSettings() messaging.RedisConfig {
	return messaging.RedisConfig{
		Address:  strings.TrimSpace(c.Cache.Redis.Address),
		Username: strings.TrimSpace(c.Cache.Redis.Username),
		Password: c.Cache.Redis.Password,
		DB:       c.Cache.Redis.DB,
		TLS:      c.Cache.Redis.TLS,
		Timeout:  c.Cache.Redis.Timeout,
		Channel:  strings.TrimSpace(c.Cache.Redis.Channel),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_encoding", "json")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/teamflow.sqlite")
	v.SetDefault("database.slow_query", "200ms")

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")
	v.SetDefault("cache.redis.channel", messaging.DefaultChannel)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("features.seed_fixtures", false)
	v.SetDefault("features.realtime", true)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.integrity_schedule", "@hourly")
	v.SetDefault("maintenance.audit_schedule", "@daily")
	v.SetDefault("maintenance.audit_retention_days", 90)
	v.SetDefault("maintenance.job_grace", "15m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
