package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamflow/internal/auditctx"
	"github.com/charlesng35/teamflow/internal/database/testutil"
	"github.com/charlesng35/teamflow/internal/models"
)

func TestAuditServiceLogAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := auditctx.WithOrigin(context.Background(), auditctx.Origin{
		RequestID: "req-1",
		IPAddress: "192.0.2.10",
		UserAgent: "teamflow-test",
	})
	require.NoError(t, svc.Log(ctx, AuditEntry{
		Action:   "task.create",
		Resource: "1",
		TeamID:   "team-a",
		Result:   "success",
		Metadata: map[string]any{"name": "Project 1"},
	}))
	require.NoError(t, svc.Log(ctx, AuditEntry{
		Action: "scope.clear",
		Result: "success",
	}))

	logs, total, err := svc.List(ctx, AuditListOptions{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, logs, 2)

	filtered, total, err := svc.List(ctx, AuditListOptions{Filters: AuditFilters{TeamID: "team-a"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "task.create", filtered[0].Action)
	require.Equal(t, "192.0.2.10", filtered[0].IPAddress)
	require.Equal(t, "teamflow-test", filtered[0].UserAgent)

	require.Equal(t, "req-1", filtered[0].RequestID)
	require.Equal(t, "Project 1", filtered[0].Metadata["name"])

	byRequest, total, err := svc.List(ctx, AuditListOptions{Filters: AuditFilters{RequestID: "req-1"}})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, byRequest, 2)
}

func TestAuditServiceActionFamilyFilter(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := context.Background()
	for _, action := range []string{"task.create", "task.delete", "team.create", "taskforce.create"} {
		require.NoError(t, svc.Log(ctx, AuditEntry{Action: action, Result: "success"}))
	}

	logs, total, err := svc.List(ctx, AuditListOptions{Filters: AuditFilters{Action: "task.*"}})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	for _, entry := range logs {
		require.Contains(t, []string{"task.create", "task.delete"}, entry.Action)
	}

	logs, total, err = svc.List(ctx, AuditListOptions{Filters: AuditFilters{Action: "team.create"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, logs, 1)

	logs, total, err = svc.List(ctx, AuditListOptions{Filters: AuditFilters{Action: "scope.*"}})
	require.NoError(t, err)
	require.Zero(t, total)
	require.NotNil(t, logs)
	require.Empty(t, logs)
}

func TestAuditListOptionsNormalised(t *testing.T) {
	opts := AuditListOptions{Page: -3, PageSize: 5000}.normalised()
	require.Equal(t, 1, opts.Page)
	require.Equal(t, maxAuditPageSize, opts.PageSize)

	opts = AuditListOptions{}.normalised()
	require.Equal(t, defaultAuditPageSize, opts.PageSize)
}

func TestAuditServiceRequiresActionAndResult(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.Error(t, svc.Log(context.Background(), AuditEntry{Result: "success"}))
	require.Error(t, svc.Log(context.Background(), AuditEntry{Action: "team.create"}))

	_, err = NewAuditService(nil)
	require.Error(t, err)
}

func TestAuditServiceCleanupOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	oldLog := models.AuditLog{
		Action:    "old.action",
		Result:    "success",
		CreatedAt: time.Now().AddDate(0, 0, -10),
	}
	require.NoError(t, db.Create(&oldLog).Error)
	require.NoError(t, svc.Log(context.Background(), AuditEntry{Action: "new.action", Result: "success"}))

	ctx := context.Background()
	rows, err := svc.CleanupOlderThan(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	_, err = svc.CleanupOlderThan(ctx, 0)
	require.Error(t, err)

	var remaining int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&remaining).Error)
	require.Equal(t, int64(1), remaining)
}
