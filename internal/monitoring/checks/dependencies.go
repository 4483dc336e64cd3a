package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/teamflow/internal/monitoring"
)

const defaultPingTimeout = 2 * time.Second

// RedisPinger is the part of the event publisher the redis probe needs.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Database pings the task store. Details name the gorm dialect and the number
// of open connections so operators can tell sqlite from a shared server.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}
		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError("database", err, 0)
		}

		result := ping(ctx, "database", timeout, sqlDB.PingContext)
		if result.Status == monitoring.StatusUp {
			result.Details = fmt.Sprintf("%s, %d open connections", db.Dialector.Name(), sqlDB.Stats().OpenConnections)
		}
		return result
	})
}

// Redis probes the cross-instance event channel. A disabled channel is up:
// events then stay local, which is a supported mode. An enabled channel whose
// client failed to connect at startup is degraded rather than down, since the
// instance still serves its own websocket clients.
func Redis(client RedisPinger, enabled bool, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		switch {
		case !enabled:
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "redis disabled; events are local"}
		case client == nil:
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "redis unavailable; events are local"}
		}
		return ping(ctx, "redis", timeout, client.Ping)
	})
}

func ping(ctx context.Context, component string, timeout time.Duration, fn func(context.Context) error) monitoring.ProbeResult {
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := fn(probeCtx); err != nil {
		return monitoring.ResultFromError(component, err, time.Since(start))
	}
	return monitoring.ProbeResult{Status: monitoring.StatusUp, Duration: time.Since(start)}
}
