// Package scope holds the currently selected team and tells consumers what
// is visible under it.
//
// A Scope is constructed once where the consuming tree starts and passed
// explicitly, usually through a context.Context. Reading the scope from a
// context that never received one is a programming error and fails with
// ErrUninitializedScope.
package scope

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/charlesng35/teamflow/pkg/errors"
)

var (
	// ErrUninitializedScope signals a read outside any scope provider.
	ErrUninitializedScope = apperrors.New("SCOPE_UNINITIALIZED", "Team scope accessed outside of its provider", http.StatusInternalServerError)
	// ErrNoActiveTeam signals a scoped query while no team is selected.
	ErrNoActiveTeam = apperrors.New("SCOPE_NOT_SELECTED", "No team is currently selected", http.StatusConflict)
)

// Team is the shallow copy of a team the scope keeps. It is never the
// authority on whether the team exists.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

// Change describes one transition of the active team.
type Change struct {
	Previous *Team     `json:"previous"`
	Current  *Team     `json:"current"`
	At       time.Time `json:"at"`
}

// Scope is a single mutable cell holding zero or one active team.
type Scope struct {
	active atomic.Pointer[Team]

	mu     sync.Mutex
	subs   map[uint64]chan Change
	nextID uint64
	now    func() time.Time
}

// New returns an empty scope.
func New() *Scope {
	return &Scope{
		subs: make(map[uint64]chan Change),
		now:  time.Now,
	}
}

// SetActive replaces the active team; nil clears it. Subscribers receive the
// change after the swap. A subscriber whose buffer is full misses the event.
func (s *Scope) SetActive(team *Team) Change {
	var next *Team
	if team != nil {
		cp := *team
		cp.ID = strings.TrimSpace(cp.ID)
		next = &cp
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.active.Swap(next)
	change := Change{Previous: copyTeam(prev), Current: copyTeam(next), At: s.now().UTC()}
	for _, sub := range s.subs {
		select {
		case sub <- change:
		default:
		}
	}
	return change
}

// Clear removes the active team.
func (s *Scope) Clear() Change {
	return s.SetActive(nil)
}

// Active returns the selected team, if any.
func (s *Scope) Active() (Team, bool) {
	current := s.active.Load()
	if current == nil {
		return Team{}, false
	}
	return *current, true
}

// ActiveID returns the selected team id or "".
func (s *Scope) ActiveID() string {
	if current := s.active.Load(); current != nil {
		return current.ID
	}
	return ""
}

// Require returns the selected team or ErrNoActiveTeam.
func (s *Scope) Require() (Team, error) {
	team, ok := s.Active()
	if !ok {
		return Team{}, ErrNoActiveTeam
	}
	return team, nil
}

// Visible reports whether an entity owned by teamID is visible: only the
// selected team's entities are, and nothing is while no team is selected.
func (s *Scope) Visible(teamID string) bool {
	active := s.ActiveID()
	return active != "" && active == strings.TrimSpace(teamID)
}

// Subscribe registers a change listener. The returned cancel func closes the
// channel and is safe to call more than once.
func (s *Scope) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func copyTeam(t *Team) *Team {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

type contextKey struct{}

// WithScope attaches s to ctx.
func WithScope(ctx context.Context, s *Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the scope attached by WithScope.
func FromContext(ctx context.Context) (*Scope, error) {
	if ctx == nil {
		return nil, ErrUninitializedScope
	}
	s, ok := ctx.Value(contextKey{}).(*Scope)
	if !ok || s == nil {
		return nil, ErrUninitializedScope
	}
	return s, nil
}

// MustFromContext is FromContext for callers that treat a missing provider as
// a bug.
func MustFromContext(ctx context.Context) *Scope {
	s, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}
