// Package monitoring evaluates the probes behind the health endpoints and
// tracks background job runs.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ProbeStatus encodes the outcome of a health probe.
type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDegraded ProbeStatus = "degraded"
	StatusDown     ProbeStatus = "down"
)

// DefaultProbeTimeout bounds a single probe when the caller's context has no
// earlier deadline.
const DefaultProbeTimeout = 5 * time.Second

// ProbeResult captures a single dependency check outcome.
type ProbeResult struct {
	Component string        `json:"component"`
	Status    ProbeStatus   `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// HealthReport aggregates probe results. Success is false only when a probe
// is down; a degraded instance keeps serving.
type HealthReport struct {
	Success bool          `json:"success"`
	Status  ProbeStatus   `json:"status"`
	Checks  []ProbeResult `json:"checks"`
}

// Check is a named probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) ProbeResult
}

// NewCheck constructs a check. A nil fn yields a probe that always reports down.
func NewCheck(name string, fn func(ctx context.Context) ProbeResult) Check {
	if fn == nil {
		fn = func(context.Context) ProbeResult {
			return ProbeResult{Status: StatusDown, Details: "probe not implemented"}
		}
	}
	return Check{Name: name, Run: fn}
}

// HealthManager holds the liveness and readiness probes. Registration may
// race with evaluation.
type HealthManager struct {
	mu        sync.RWMutex
	liveness  []Check
	readiness []Check
	timeout   time.Duration
}

// NewHealthManager constructs an empty health manager.
func NewHealthManager() *HealthManager {
	return &HealthManager{timeout: DefaultProbeTimeout}
}

// RegisterLiveness adds a probe deciding whether the process should be restarted.
func (m *HealthManager) RegisterLiveness(check Check) {
	m.register(&m.liveness, check)
}

// RegisterReadiness adds a probe deciding whether the instance takes traffic.
func (m *HealthManager) RegisterReadiness(check Check) {
	m.register(&m.readiness, check)
}

func (m *HealthManager) register(into *[]Check, check Check) {
	if check.Name == "" || check.Run == nil {
		return
	}
	m.mu.Lock()
	*into = append(*into, check)
	m.mu.Unlock()
}

// EvaluateLiveness runs every liveness probe.
func (m *HealthManager) EvaluateLiveness(ctx context.Context) HealthReport {
	m.mu.RLock()
	checks := append([]Check(nil), m.liveness...)
	m.mu.RUnlock()
	return m.evaluate(ctx, checks)
}

// EvaluateReadiness runs every readiness probe.
func (m *HealthManager) EvaluateReadiness(ctx context.Context) HealthReport {
	m.mu.RLock()
	checks := append([]Check(nil), m.readiness...)
	m.mu.RUnlock()
	return m.evaluate(ctx, checks)
}

// Evaluate runs liveness and readiness probes together.
func (m *HealthManager) Evaluate(ctx context.Context) HealthReport {
	m.mu.RLock()
	checks := make([]Check, 0, len(m.liveness)+len(m.readiness))
	checks = append(checks, m.liveness...)
	checks = append(checks, m.readiness...)
	m.mu.RUnlock()
	return m.evaluate(ctx, checks)
}

// evaluate runs the probes concurrently; results keep registration order.
func (m *HealthManager) evaluate(ctx context.Context, checks []Check) HealthReport {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]ProbeResult, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()
			results[i] = runCheck(probeCtx, check)
		}()
	}
	wg.Wait()

	status := StatusUp
	for _, result := range results {
		status = WorstStatus(status, result.Status)
	}
	return HealthReport{Success: status != StatusDown, Status: status, Checks: results}
}

func runCheck(ctx context.Context, check Check) (result ProbeResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = ProbeResult{Status: StatusDown, Details: panicDetails(rec)}
		}
		result.Component = check.Name
		if result.Status == "" {
			result.Status = StatusDown
		}
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
	}()
	return check.Run(ctx)
}

func panicDetails(rec any) string {
	switch v := rec.(type) {
	case string:
		return v
	case error:
		return v.Error()
	}
	return fmt.Sprintf("panic: %v", rec)
}

// WorstStatus returns the more severe of two statuses.
func WorstStatus(current, candidate ProbeStatus) ProbeStatus {
	if severity(candidate) > severity(current) {
		return candidate
	}
	return current
}

func severity(status ProbeStatus) int {
	switch status {
	case StatusUp:
		return 0
	case StatusDegraded:
		return 1
	}
	return 2
}

// ResultFromError turns a probe error into a result. A probe that ran out of
// time is degraded; any other error is down.
func ResultFromError(component string, err error, duration time.Duration) ProbeResult {
	result := ProbeResult{Component: component, Status: StatusUp, Duration: max(duration, 0)}
	if err == nil {
		return result
	}
	result.Details = err.Error()
	result.Status = StatusDown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		result.Status = StatusDegraded
	}
	return result
}
