package maintenance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/teamflow/internal/monitoring"
	"github.com/charlesng35/teamflow/internal/services"
	"github.com/charlesng35/teamflow/pkg/logger"
	"github.com/charlesng35/teamflow/pkg/metrics"
)

const (
	defaultAuditRetentionDays = 90
	defaultIntegritySpec      = "@hourly"
	defaultAuditSpec          = "@daily"

	// JobIntegritySweep re-validates the stored task records.
	JobIntegritySweep = "integrity_sweep"
	// JobAuditCleanup enforces audit log retention.
	JobAuditCleanup = "audit_cleanup"
)

// Cleaner coordinates background maintenance: sweeping stored tasks for
// records the succession graph would reject and pruning stale audit logs.
type Cleaner struct {
	tasks     *services.TaskService
	audit     *services.AuditService
	tracker   *monitoring.JobTracker
	cron      *cron.Cron
	log       *zap.Logger
	retention int

	integritySchedule string
	auditSchedule     string

	violations atomic.Int64
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithTracker records every job run on the supplied tracker.
func WithTracker(tracker *monitoring.JobTracker) Option {
	return func(cleaner *Cleaner) {
		cleaner.tracker = tracker
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithIntegritySchedule overrides the cron specification for the integrity sweep.
func WithIntegritySchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.integritySchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil service
// results in the corresponding job being skipped.
func NewCleaner(tasks *services.TaskService, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		tasks:             tasks,
		audit:             audit,
		retention:         defaultAuditRetentionDays,
		integritySchedule: defaultIntegritySpec,
		auditSchedule:     defaultAuditSpec,
		log:               logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	if cleaner.tracker != nil {
		for _, job := range cleaner.jobs() {
			cleaner.tracker.Register(job.name, nil)
		}
	}
	return cleaner
}

// jobs lists the enabled jobs with their cron specs.
func (c *Cleaner) jobs() []scheduledJob {
	var jobs []scheduledJob
	if c.tasks != nil {
		jobs = append(jobs, scheduledJob{name: JobIntegritySweep, spec: c.integritySchedule, run: c.SweepIntegrity})
	}
	if c.audit != nil {
		jobs = append(jobs, scheduledJob{name: JobAuditCleanup, spec: c.auditSchedule, run: c.CleanupAudit})
	}
	return jobs
}

type scheduledJob struct {
	name string
	spec string
	run  func(context.Context) error
}

// Start schedules the enabled jobs and starts the scheduler. Every spec is
// parsed before anything is scheduled, so a bad spec leaves nothing running.
// The tracker learns each schedule so overdue runs show up in health.
func (c *Cleaner) Start() error {
	jobs := c.jobs()
	if len(jobs) == 0 {
		return nil
	}

	schedules := make([]cron.Schedule, len(jobs))
	for i, job := range jobs {
		schedule, err := cron.ParseStandard(job.spec)
		if err != nil {
			return fmt.Errorf("%s schedule %q: %w", job.name, job.spec, err)
		}
		schedules[i] = schedule
	}

	for i, job := range jobs {
		if c.tracker != nil {
			c.tracker.Register(job.name, schedules[i])
		}
		c.cron.Schedule(schedules[i], cron.FuncJob(func() {
			if err := job.run(context.Background()); err != nil {
				c.log.Warn("maintenance job failed", zap.String("job", job.name), zap.Error(err))
			}
		}))
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially. Used at startup and in tests.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	for _, job := range c.jobs() {
		errs = multierr.Append(errs, job.run(ctx))
	}
	return errs
}

// SweepIntegrity validates the stored task records against the succession
// rules. Violations are counted, not returned; the error reports only a
// failure to read the store.
func (c *Cleaner) SweepIntegrity(ctx context.Context) error {
	if c.tasks == nil {
		return nil
	}

	start := time.Now()
	violations, err := c.tasks.VerifyStore(ctx)
	c.record(JobIntegritySweep, time.Since(start), err)
	if err != nil {
		return err
	}

	c.violations.Store(int64(len(violations)))
	metrics.IntegrityViolations.Set(float64(len(violations)))
	for _, violation := range violations {
		c.log.Warn("stored task violates succession rules", zap.Error(violation))
	}
	return nil
}

// CleanupAudit deletes audit logs older than the retention window.
func (c *Cleaner) CleanupAudit(ctx context.Context) error {
	if c.audit == nil || c.retention <= 0 {
		return nil
	}

	start := time.Now()
	removed, err := c.audit.CleanupOlderThan(ctx, c.retention)
	c.record(JobAuditCleanup, time.Since(start), err)
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Info("audit logs pruned", zap.Int64("removed", removed), zap.Int("retention_days", c.retention))
	}
	return nil
}

// Violations reports how many violations the last integrity sweep found.
func (c *Cleaner) Violations() int {
	return int(c.violations.Load())
}

func (c *Cleaner) record(job string, duration time.Duration, err error) {
	if c.tracker != nil {
		c.tracker.Record(job, duration, err)
	}
}
