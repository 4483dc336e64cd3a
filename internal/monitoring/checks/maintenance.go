package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/teamflow/internal/monitoring"
)

// DefaultJobGrace is how far past its due time a scheduled job may run
// before the probe calls it overdue.
const DefaultJobGrace = 15 * time.Minute

// Maintenance reports on the tracked background jobs:
//   - a job whose last run failed is down;
//   - a job overdue by more than grace is degraded;
//   - a job that has not run yet is noted but healthy.
//
// Zero grace selects DefaultJobGrace.
func Maintenance(tracker *monitoring.JobTracker, grace time.Duration) monitoring.Check {
	if grace <= 0 {
		grace = DefaultJobGrace
	}

	return monitoring.NewCheck("maintenance", func(ctx context.Context) monitoring.ProbeResult {
		if tracker == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "maintenance disabled"}
		}
		jobs := tracker.Snapshot()
		if len(jobs) == 0 {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "no maintenance jobs registered"}
		}

		now := time.Now()
		status := monitoring.StatusUp
		notes := make([]string, 0, len(jobs))
		for _, job := range jobs {
			jobStatus, note := assessJob(job, now, grace)
			status = monitoring.WorstStatus(status, jobStatus)
			if note != "" {
				notes = append(notes, job.Job+": "+note)
			}
		}
		return monitoring.ProbeResult{Status: status, Details: strings.Join(notes, "; ")}
	})
}

func assessJob(job monitoring.JobRun, now time.Time, grace time.Duration) (monitoring.ProbeStatus, string) {
	overdue := !job.NextDueAt.IsZero() && now.After(job.NextDueAt.Add(grace))

	switch {
	case job.ConsecutiveFailures > 0:
		return monitoring.StatusDown, fmt.Sprintf("%s (%d consecutive failures)", job.LastError, job.ConsecutiveFailures)
	case overdue && job.TotalRuns == 0:
		return monitoring.StatusDegraded, "never ran; was due " + job.NextDueAt.UTC().Format(time.RFC3339)
	case overdue:
		return monitoring.StatusDegraded, "overdue since " + job.NextDueAt.UTC().Format(time.RFC3339)
	case job.TotalRuns == 0:
		return monitoring.StatusUp, "pending first run"
	}
	return monitoring.StatusUp, ""
}
