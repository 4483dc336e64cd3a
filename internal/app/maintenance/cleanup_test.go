package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/charlesng35/teamflow/internal/database/testutil"
	"github.com/charlesng35/teamflow/internal/models"
	"github.com/charlesng35/teamflow/internal/monitoring"
	"github.com/charlesng35/teamflow/internal/services"
)

type fixture struct {
	db    *gorm.DB
	tasks *services.TaskService
	audit *services.AuditService
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	teams, err := services.NewTeamService(db, audit)
	require.NoError(t, err)
	tasks, err := services.NewTaskService(db, nil, teams, audit, nil)
	require.NoError(t, err)
	require.NoError(t, tasks.Reload(context.Background()))

	return fixture{db: db, tasks: tasks, audit: audit}
}

func TestSweepIntegrityCleanStore(t *testing.T) {
	fx := newFixture(t)
	tracker := monitoring.NewJobTracker()
	cleaner := NewCleaner(fx.tasks, nil, WithTracker(tracker))

	require.NoError(t, cleaner.SweepIntegrity(context.Background()))
	require.Zero(t, cleaner.Violations())

	runs := tracker.Snapshot()
	require.Len(t, runs, 1)
	require.Equal(t, JobIntegritySweep, runs[0].Job)
	require.Equal(t, uint64(1), runs[0].TotalRuns)
	require.Zero(t, runs[0].Failures)
}

func TestSweepIntegrityCountsViolations(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.db.Create(&models.Task{
		ID:         "orphan",
		Name:       "Orphaned successor",
		Status:     "Active",
		TeamID:     "team-design",
		StartDate:  "2024-01-20",
		EndDate:    "2024-01-20",
		NextTaskID: ptr("task-does-not-exist"),
	}).Error)

	cleaner := NewCleaner(fx.tasks, nil)
	require.NoError(t, cleaner.SweepIntegrity(context.Background()))
	require.Equal(t, 1, cleaner.Violations())

	require.NoError(t, fx.db.Delete(&models.Task{}, "id = ?", "orphan").Error)
	require.NoError(t, cleaner.SweepIntegrity(context.Background()))
	require.Zero(t, cleaner.Violations())
}

func TestSweepIntegrityCountsEveryBrokenRecord(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData(), testutil.WithTasks(
		models.Task{ID: "undated", Name: "No dates", TeamID: "team-design", NextTaskID: ptr("missing")},
		models.Task{ID: "inverted", Name: "Ends first", TeamID: "team-design",
			StartDate: "2024-02-02", EndDate: "2024-02-01"},
	))
	teams, err := services.NewTeamService(db, nil)
	require.NoError(t, err)
	tasks, err := services.NewTaskService(db, nil, teams, nil, nil)
	require.NoError(t, err)

	cleaner := NewCleaner(tasks, nil)
	require.NoError(t, cleaner.SweepIntegrity(context.Background()))
	// undated: bad window and dangling successor; inverted: bad window.
	require.Equal(t, 3, cleaner.Violations())
	require.Zero(t, tasks.Graph().Len())
}

func ptr(s string) *string { return &s }

func TestCleanupAuditHonoursRetention(t *testing.T) {
	fx := newFixture(t)
	stale := models.AuditLog{
		Action:    "task.create",
		Result:    "success",
		CreatedAt: time.Now().AddDate(0, 0, -40),
	}
	require.NoError(t, fx.db.Create(&stale).Error)
	require.NoError(t, fx.audit.Log(context.Background(), services.AuditEntry{Action: "task.update", Result: "success"}))

	tracker := monitoring.NewJobTracker()
	cleaner := NewCleaner(nil, fx.audit, WithAuditRetentionDays(30), WithTracker(tracker))
	require.NoError(t, cleaner.CleanupAudit(context.Background()))

	var remaining int64
	require.NoError(t, fx.db.Model(&models.AuditLog{}).Count(&remaining).Error)
	require.Equal(t, int64(1), remaining)

	runs := tracker.Snapshot()
	require.Len(t, runs, 1)
	require.Equal(t, JobAuditCleanup, runs[0].Job)
}

func TestRunOnceRunsEveryJob(t *testing.T) {
	fx := newFixture(t)
	tracker := monitoring.NewJobTracker()
	cleaner := NewCleaner(fx.tasks, fx.audit, WithTracker(tracker))

	require.NoError(t, cleaner.RunOnce(context.Background()))
	for _, run := range tracker.Snapshot() {
		require.Equal(t, uint64(1), run.TotalRuns, run.Job)
	}
}

func TestStartRegistersJobs(t *testing.T) {
	fx := newFixture(t)
	scheduler := cron.New(cron.WithLogger(cron.DiscardLogger))
	tracker := monitoring.NewJobTracker()
	cleaner := NewCleaner(fx.tasks, fx.audit,
		WithCron(scheduler),
		WithTracker(tracker),
		WithIntegritySchedule("@every 1h"),
		WithAuditSchedule("@every 24h"),
	)

	require.NoError(t, cleaner.Start())
	t.Cleanup(func() { <-cleaner.Stop().Done() })
	require.Len(t, scheduler.Entries(), 2)

	for _, run := range tracker.Snapshot() {
		require.Zero(t, run.TotalRuns, run.Job)
		require.True(t, run.NextDueAt.After(time.Now()), run.Job)
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	fx := newFixture(t)
	scheduler := cron.New(cron.WithLogger(cron.DiscardLogger))
	cleaner := NewCleaner(fx.tasks, fx.audit, WithCron(scheduler), WithAuditSchedule("not a schedule"))
	require.ErrorContains(t, cleaner.Start(), JobAuditCleanup)
	require.Empty(t, scheduler.Entries())
}

func TestStartWithoutJobsIsNoop(t *testing.T) {
	cleaner := NewCleaner(nil, nil)
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))
}
