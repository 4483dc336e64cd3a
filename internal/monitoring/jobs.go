package monitoring

import (
	"sort"
	"sync"
	"time"
)

// Schedule yields a job's next activation after t. robfig/cron schedules
// satisfy it.
type Schedule interface {
	Next(t time.Time) time.Time
}

// JobRun summarises the recorded history of one background job. NextDueAt is
// zero for jobs registered without a schedule.
type JobRun struct {
	Job                 string        `json:"job"`
	TotalRuns           uint64        `json:"total_runs"`
	Failures            uint64        `json:"failures"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	NextDueAt           time.Time     `json:"next_due_at,omitempty"`
}

type trackedJob struct {
	run        JobRun
	schedule   Schedule
	registered time.Time
}

// JobTracker records background job outcomes for the maintenance probe.
type JobTracker struct {
	mu   sync.RWMutex
	jobs map[string]*trackedJob
	now  func() time.Time
}

// NewJobTracker returns an empty tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{jobs: make(map[string]*trackedJob), now: time.Now}
}

// Register announces job before its first run so probes report it as
// pending. With a schedule, the probe can tell when a run is overdue.
func (t *JobTracker) Register(job string, schedule Schedule) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked := t.lookupLocked(job)
	if schedule != nil {
		tracked.schedule = schedule
	}
}

// Record stores the outcome of one run. A nil err is a success.
func (t *JobTracker) Record(job string, duration time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run := &t.lookupLocked(job).run
	run.TotalRuns++
	run.LastRunAt = t.now()
	run.LastDuration = duration
	if err != nil {
		run.Failures++
		run.ConsecutiveFailures++
		run.LastError = err.Error()
		return
	}
	run.ConsecutiveFailures = 0
	run.LastError = ""
}

// Snapshot returns a copy of every job, sorted by name.
func (t *JobTracker) Snapshot() []JobRun {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]JobRun, 0, len(t.jobs))
	for _, tracked := range t.jobs {
		run := tracked.run
		if tracked.schedule != nil {
			from := run.LastRunAt
			if from.IsZero() {
				from = tracked.registered
			}
			run.NextDueAt = tracked.schedule.Next(from)
		}
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

func (t *JobTracker) lookupLocked(job string) *trackedJob {
	tracked, ok := t.jobs[job]
	if !ok {
		tracked = &trackedJob{run: JobRun{Job: job}, registered: t.now()}
		t.jobs[job] = tracked
	}
	return tracked
}
