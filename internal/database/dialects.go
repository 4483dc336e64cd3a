package database

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type dialect struct {
	dial func(cfg Config) (gorm.Dialector, error)
	// after runs once the handle is open.
	after func(db *gorm.DB, cfg Config) error
}

var dialects = map[string]dialect{
	"sqlite":     {dial: sqliteDialector, after: tuneSQLite},
	"postgres":   {dial: postgresDialector},
	"postgresql": {dial: postgresDialector},
	"mysql":      {dial: mysqlDialector},
}

func sqliteDialector(cfg Config) (gorm.Dialector, error) {
	dsn, err := sqliteDSN(cfg)
	if err != nil {
		return nil, err
	}
	return sqlite.Open(dsn), nil
}

func sqliteDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if isMemory(cfg) {
		// Named per handle so separate in-memory databases never share state.
		return fmt.Sprintf("file:teamflow-%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()), nil
	}

	path := strings.TrimSpace(cfg.Path)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	return fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", filepath.ToSlash(path)), nil
}

func isMemory(cfg Config) bool {
	path := strings.TrimSpace(cfg.Path)
	return cfg.DSN == "" && (path == "" || strings.EqualFold(path, ":memory:"))
}

// tuneSQLite enables foreign keys on the open connection and pins in-memory
// databases to one connection: shared-cache memory databases report table
// locks under concurrent connections.
func tuneSQLite(db *gorm.DB, cfg Config) error {
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	if !isMemory(cfg) {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	return nil
}

func postgresDialector(cfg Config) (gorm.Dialector, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return postgres.Open(dsn), nil
}

// buildPostgresDSN renders a postgres:// URL and checks it with pgconn so a
// malformed option fails at startup instead of on first query.
func buildPostgresDSN(cfg Config) (string, error) {
	dsn := cfg.DSN
	if dsn == "" {
		if cfg.User == "" || cfg.Name == "" {
			return "", fmt.Errorf("postgres configuration requires user and database name")
		}

		query := url.Values{}
		query.Set("sslmode", "disable")
		query.Set("application_name", "teamflow")
		for key, value := range cfg.Options {
			query.Set(key, value)
		}

		u := url.URL{
			Scheme:   "postgres",
			User:     url.User(cfg.User),
			Host:     net.JoinHostPort(orDefault(cfg.Host, "localhost"), strconv.Itoa(portOrDefault(cfg.Port, 5432))),
			Path:     "/" + cfg.Name,
			RawQuery: query.Encode(),
		}
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		dsn = u.String()
	}

	if _, err := pgconn.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("postgres dsn: %w", err)
	}
	return dsn, nil
}

func mysqlDialector(cfg Config) (gorm.Dialector, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return mysql.Open(dsn), nil
}

// buildMySQLDSN renders the DSN through the driver's own config so escaping
// and parameter names stay in step with the driver.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		if _, err := mysqldriver.ParseDSN(cfg.DSN); err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", fmt.Errorf("mysql configuration requires user and database name")
	}

	driverCfg := mysqldriver.NewConfig()
	driverCfg.User = cfg.User
	driverCfg.Passwd = cfg.Password
	driverCfg.Net = "tcp"
	driverCfg.Addr = net.JoinHostPort(orDefault(cfg.Host, "127.0.0.1"), strconv.Itoa(portOrDefault(cfg.Port, 3306)))
	driverCfg.DBName = cfg.Name
	driverCfg.ParseTime = true
	driverCfg.Loc = time.UTC
	driverCfg.Params = map[string]string{"charset": "utf8mb4"}
	for key, value := range cfg.Options {
		driverCfg.Params[key] = value
	}
	return driverCfg.FormatDSN(), nil
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}

func portOrDefault(port, fallback int) int {
	if port <= 0 {
		return fallback
	}
	return port
}
