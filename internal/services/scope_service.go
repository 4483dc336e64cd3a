package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/charlesng35/teamflow/internal/realtime"
	"github.com/charlesng35/teamflow/internal/scope"
	"github.com/charlesng35/teamflow/pkg/logger"
	"github.com/charlesng35/teamflow/pkg/metrics"
)

// ScopeService selects the active team on the scope carried by a context,
// resolving the team through the store first.
type ScopeService struct {
	teams  *TeamService
	audit  *AuditService
	events EventPublisher
}

// NewScopeService constructs a ScopeService.
func NewScopeService(teams *TeamService, audit *AuditService, events EventPublisher) (*ScopeService, error) {
	if teams == nil {
		return nil, errors.New("scope service: team service is required")
	}
	return &ScopeService{teams: teams, audit: audit, events: events}, nil
}

// Current returns the active team, if any.
func (s *ScopeService) Current(ctx context.Context) (*scope.Team, error) {
	sc, err := scope.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	team, ok := sc.Active()
	if !ok {
		return nil, nil
	}
	return &team, nil
}

// Select makes teamID the active team.
func (s *ScopeService) Select(ctx context.Context, teamID string) (scope.Change, error) {
	ctx = ensureContext(ctx)

	sc, err := scope.FromContext(ctx)
	if err != nil {
		return scope.Change{}, err
	}

	team, err := s.teams.Get(ctx, teamID)
	if err != nil {
		return scope.Change{}, err
	}

	change := sc.SetActive(&scope.Team{
		ID:          team.ID,
		Name:        team.Name,
		WorkspaceID: team.WorkspaceID,
	})
	metrics.ScopeChanges.WithLabelValues("select").Inc()

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "scope.select",
		Resource: team.ID,
		TeamID:   team.ID,
		Result:   "success",
		Metadata: map[string]any{"previous": teamIDOf(change.Previous)},
	})
	return change, nil
}

// Clear removes the active team.
func (s *ScopeService) Clear(ctx context.Context) (scope.Change, error) {
	ctx = ensureContext(ctx)

	sc, err := scope.FromContext(ctx)
	if err != nil {
		return scope.Change{}, err
	}

	change := sc.Clear()
	metrics.ScopeChanges.WithLabelValues("clear").Inc()

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "scope.clear",
		Resource: "scope",
		TeamID:   teamIDOf(change.Previous),
		Result:   "success",
	})
	return change, nil
}

// Relay forwards every change of sc to the event publisher until ctx is done.
func (s *ScopeService) Relay(ctx context.Context, sc *scope.Scope) {
	if sc == nil {
		return
	}

	changes, cancel := sc.Subscribe(16)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			logger.WithTeam("scope", teamIDOf(change.Current)).Debug("active team changed",
				zap.String("previous", teamIDOf(change.Previous)),
			)
			publishEvent(ctx, s.events, realtime.StreamScope, realtime.EventScopeChanged, change)
		}
	}
}

func teamIDOf(team *scope.Team) string {
	if team == nil {
		return ""
	}
	return team.ID
}
