package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamflow/internal/database"
	"github.com/charlesng35/teamflow/internal/models"
	"github.com/charlesng35/teamflow/internal/realtime"
	"github.com/charlesng35/teamflow/internal/scope"
)

func TestScopeServiceSelectAndClear(t *testing.T) {
	f := newServiceFixture(t)
	sc := scope.New()
	ctx := scope.WithScope(context.Background(), sc)

	current, err := f.scopes.Current(ctx)
	require.NoError(t, err)
	require.Nil(t, current)

	change, err := f.scopes.Select(ctx, database.FixtureTeamDesign)
	require.NoError(t, err)
	require.Nil(t, change.Previous)
	require.Equal(t, "Design", change.Current.Name)
	require.True(t, sc.Visible(database.FixtureTeamDesign))

	current, err = f.scopes.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, database.FixtureTeamDesign, current.ID)

	_, err = f.scopes.Select(ctx, "team-missing")
	require.ErrorIs(t, err, ErrTeamNotFound)
	require.Equal(t, database.FixtureTeamDesign, sc.ActiveID())

	change, err = f.scopes.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, database.FixtureTeamDesign, change.Previous.ID)
	require.Empty(t, sc.ActiveID())

	var count int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("action LIKE ?", "scope.%").Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestScopeServiceRequiresProvider(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.scopes.Select(context.Background(), database.FixtureTeamDesign)
	require.ErrorIs(t, err, scope.ErrUninitializedScope)

	_, err = f.scopes.Clear(context.Background())
	require.ErrorIs(t, err, scope.ErrUninitializedScope)

	_, err = f.scopes.Current(context.Background())
	require.ErrorIs(t, err, scope.ErrUninitializedScope)
}

func TestScopeServiceRelayPublishesChanges(t *testing.T) {
	f := newServiceFixture(t)
	sc := scope.New()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.scopes.Relay(ctx, sc)
	}()

	// Relay subscribes asynchronously; keep selecting until an event lands.
	require.Eventually(t, func() bool {
		sc.SetActive(&scope.Team{ID: database.FixtureTeamEngineering})
		return len(f.publisher.events(realtime.StreamScope)) > 0
	}, time.Second, 10*time.Millisecond)

	events := f.publisher.events(realtime.StreamScope)
	require.Equal(t, realtime.EventScopeChanged, events[0].Event)
	change, ok := events[0].Data.(scope.Change)
	require.True(t, ok)
	require.Equal(t, database.FixtureTeamEngineering, change.Current.ID)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}
