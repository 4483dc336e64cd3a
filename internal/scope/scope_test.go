package scope

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetActiveAndClear(t *testing.T) {
	s := New()

	_, ok := s.Active()
	require.False(t, ok)
	require.Empty(t, s.ActiveID())

	s.SetActive(&Team{ID: "team-1", Name: "Platform"})
	team, ok := s.Active()
	require.True(t, ok)
	require.Equal(t, "team-1", team.ID)

	change := s.Clear()
	require.Equal(t, "team-1", change.Previous.ID)
	require.Nil(t, change.Current)
	_, ok = s.Active()
	require.False(t, ok)
}

func TestSetActiveStoresCopy(t *testing.T) {
	s := New()
	team := &Team{ID: "team-1", Name: "Platform"}
	s.SetActive(team)

	team.Name = "Renamed"
	got, _ := s.Active()
	require.Equal(t, "Platform", got.Name)
}

func TestVisible(t *testing.T) {
	s := New()
	require.False(t, s.Visible("team-1"))

	s.SetActive(&Team{ID: "team-1"})
	require.True(t, s.Visible("team-1"))
	require.False(t, s.Visible("team-2"))
	require.False(t, s.Visible(""))
}

func TestRequire(t *testing.T) {
	s := New()
	_, err := s.Require()
	require.ErrorIs(t, err, ErrNoActiveTeam)

	s.SetActive(&Team{ID: "team-1"})
	team, err := s.Require()
	require.NoError(t, err)
	require.Equal(t, "team-1", team.ID)
}

func TestSubscribersReceiveChanges(t *testing.T) {
	s := New()
	changes, cancel := s.Subscribe(4)

	s.SetActive(&Team{ID: "team-1"})
	s.SetActive(&Team{ID: "team-2"})

	first := <-changes
	require.Nil(t, first.Previous)
	require.Equal(t, "team-1", first.Current.ID)

	second := <-changes
	require.Equal(t, "team-1", second.Previous.ID)
	require.Equal(t, "team-2", second.Current.ID)

	cancel()
	cancel()
	_, open := <-changes
	require.False(t, open)

	s.SetActive(nil)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	s := New()
	_, cancel := s.Subscribe(1)
	defer cancel()

	for i := 0; i < 10; i++ {
		s.SetActive(&Team{ID: "team"})
	}
	require.Equal(t, "team", s.ActiveID())
}

func TestFromContextFailsOutsideProvider(t *testing.T) {
	_, err := FromContext(context.Background())
	require.ErrorIs(t, err, ErrUninitializedScope)

	_, err = FromContext(nil)
	require.ErrorIs(t, err, ErrUninitializedScope)

	require.Panics(t, func() { MustFromContext(context.Background()) })
}

func TestFromContextReturnsProvidedScope(t *testing.T) {
	s := New()
	ctx := WithScope(context.Background(), s)

	got, err := FromContext(ctx)
	require.NoError(t, err)
	require.Same(t, s, got)
}

func TestConcurrentSetActiveNeverTears(t *testing.T) {
	s := New()
	teams := []Team{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				team := teams[(i+j)%2]
				s.SetActive(&team)
			}
		}(i)
	}

	for i := 0; i < 1000; i++ {
		if team, ok := s.Active(); ok {
			require.Equal(t, team.ID, map[string]string{"A": "a", "B": "b"}[team.Name])
		}
	}
	wg.Wait()
}
