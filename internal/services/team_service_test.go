package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamflow/internal/database"
	"github.com/charlesng35/teamflow/internal/database/testutil"
	"github.com/charlesng35/teamflow/internal/models"
	apperrors "github.com/charlesng35/teamflow/pkg/errors"
)

func TestTeamServiceLifecycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	svc, err := NewTeamService(db, audit)
	require.NoError(t, err)

	ctx := context.Background()
	team, err := svc.Create(ctx, CreateTeamInput{Name: " Platform ", Description: "Infra", WorkspaceID: "ws-1"})
	require.NoError(t, err)
	require.NotEmpty(t, team.ID)
	require.Equal(t, "Platform", team.Name)
	require.Equal(t, "Active", team.Status)

	_, err = svc.Create(ctx, CreateTeamInput{Name: "Platform"})
	require.ErrorIs(t, err, ErrTeamNameTaken)

	_, err = svc.Create(ctx, CreateTeamInput{Name: "  "})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrBadRequest.Code, appErr.Code)

	name := "Platform Core"
	status := "Archived"
	updated, err := svc.Update(ctx, team.ID, UpdateTeamInput{Name: &name, Status: &status})
	require.NoError(t, err)
	require.Equal(t, "Platform Core", updated.Name)
	require.Equal(t, "Archived", updated.Status)
	require.Equal(t, "Infra", updated.Description)

	teams, err := svc.List(ctx, TeamListOptions{WorkspaceID: "ws-1"})
	require.NoError(t, err)
	require.Len(t, teams, 1)

	require.NoError(t, svc.Delete(ctx, team.ID))
	_, err = svc.Get(ctx, team.ID)
	require.ErrorIs(t, err, ErrTeamNotFound)

	var actions []string
	require.NoError(t, db.Model(&models.AuditLog{}).Order("created_at ASC").Pluck("action", &actions).Error)
	require.Equal(t, []string{"team.create", "team.update", "team.delete"}, actions)
}

func TestTeamServiceDeleteRejectsTeamWithTasks(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := NewTeamService(db, nil)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), database.FixtureTeamDesign)
	require.ErrorIs(t, err, ErrTeamHasTasks)

	_, err = svc.Get(context.Background(), database.FixtureTeamDesign)
	require.NoError(t, err)
}

func TestTeamServiceUnknownTeam(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTeamService(db, nil)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTeamNotFound)

	_, err = svc.Update(context.Background(), "missing", UpdateTeamInput{})
	require.ErrorIs(t, err, ErrTeamNotFound)

	require.ErrorIs(t, svc.Delete(context.Background(), ""), ErrTeamNotFound)

	teams, err := svc.List(context.Background(), TeamListOptions{})
	require.NoError(t, err)
	require.NotNil(t, teams)
	require.Empty(t, teams)
}
