package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/teamflow/internal/models"
	apperrors "github.com/charlesng35/teamflow/pkg/errors"
)

var (
	// ErrTeamNotFound indicates the requested team does not exist.
	ErrTeamNotFound = apperrors.New("TEAM_NOT_FOUND", "Team not found", http.StatusNotFound)
	// ErrTeamHasTasks signals a delete attempt on a team that still owns tasks.
	ErrTeamHasTasks = apperrors.New("TEAM_HAS_TASKS", "Team still owns tasks", http.StatusConflict)
	// ErrTeamNameTaken signals a duplicate team name.
	ErrTeamNameTaken = apperrors.New("TEAM_NAME_TAKEN", "Team name already exists", http.StatusConflict)
	// ErrTeamIDTaken signals a create with an id another team already uses.
	ErrTeamIDTaken = apperrors.New("TEAM_ID_TAKEN", "Team id already exists", http.StatusConflict)
)

// CreateTeamInput captures new team metadata.
type CreateTeamInput struct {
	ID          string
	Name        string
	Description string
	Type        string
	Status      string
	LeaderID    string
	WorkspaceID string
}

// UpdateTeamInput describes mutable team fields.
type UpdateTeamInput struct {
	Name        *string
	Description *string
	Type        *string
	Status      *string
	LeaderID    *string
	WorkspaceID *string
}

// TeamListOptions filters team listings.
type TeamListOptions struct {
	WorkspaceID string
	Status      string
}

// TeamService handles the team lifecycle.
type TeamService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewTeamService constructs a TeamService instance.
func NewTeamService(db *gorm.DB, auditService *AuditService) (*TeamService, error) {
	if db == nil {
		return nil, errors.New("team service: db is required")
	}
	return &TeamService{
		db:           db,
		auditService: auditService,
	}, nil
}

// Create registers a new team.
func (s *TeamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("team name is required")
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = "Active"
	}

	team := &models.Team{
		BaseModel:   models.BaseModel{ID: strings.TrimSpace(input.ID)},
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Type:        strings.TrimSpace(input.Type),
		Status:      status,
		LeaderID:    strings.TrimSpace(input.LeaderID),
		WorkspaceID: strings.TrimSpace(input.WorkspaceID),
	}

	if err := s.db.WithContext(ctx).Create(team).Error; err != nil {
		if violatesColumn(err, "id") {
			return nil, ErrTeamIDTaken
		}
		if _, dup := uniqueViolation(err); dup {
			return nil, ErrTeamNameTaken
		}
		return nil, fmt.Errorf("team service: create team: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "team.create",
		Resource: team.ID,
		TeamID:   team.ID,
		Result:   "success",
		Metadata: map[string]any{
			"name": team.Name,
		},
	})

	return team, nil
}

// Get loads a single team.
func (s *TeamService) Get(ctx context.Context, id string) (*models.Team, error) {
	ctx = ensureContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrTeamNotFound
	}

	var team models.Team
	err := s.db.WithContext(ctx).First(&team, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("team service: get team: %w", err)
	}
	return &team, nil
}

// List returns teams ordered by name.
func (s *TeamService) List(ctx context.Context, opts TeamListOptions) ([]models.Team, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Team{})
	if workspace := strings.TrimSpace(opts.WorkspaceID); workspace != "" {
		query = query.Where("workspace_id = ?", workspace)
	}
	if status := strings.TrimSpace(opts.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	teams := make([]models.Team, 0)
	if err := query.Order("name ASC").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("team service: list teams: %w", err)
	}
	return teams, nil
}

// Update modifies team metadata.
func (s *TeamService) Update(ctx context.Context, id string, input UpdateTeamInput) (*models.Team, error) {
	ctx = ensureContext(ctx)

	team, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != team.Name {
			updates["name"] = name
		}
	}
	setField := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setField("description", input.Description)
	setField("type", input.Type)
	setField("status", input.Status)
	setField("leader_id", input.LeaderID)
	setField("workspace_id", input.WorkspaceID)

	if len(updates) == 0 {
		return team, nil
	}

	if err := s.db.WithContext(ctx).Model(team).Updates(updates).Error; err != nil {
		if _, dup := uniqueViolation(err); dup {
			return nil, ErrTeamNameTaken
		}
		return nil, fmt.Errorf("team service: update team: %w", err)
	}

	reloaded, err := s.Get(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("team service: reload team: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "team.update",
		Resource: team.ID,
		TeamID:   team.ID,
		Result:   "success",
		Metadata: updates,
	})

	return reloaded, nil
}

// Delete removes a team that no longer owns any task.
func (s *TeamService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	team, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&models.Task{}).Where("team_id = ?", team.ID).Count(&owned).Error; err != nil {
			return fmt.Errorf("team service: count tasks: %w", err)
		}
		if owned > 0 {
			return ErrTeamHasTasks.WithDetails(map[string]int64{"tasks": owned})
		}

		if err := tx.Delete(&models.Team{}, "id = ?", team.ID).Error; err != nil {
			if foreignKeyViolation(err) {
				return ErrTeamHasTasks
			}
			return fmt.Errorf("team service: delete team: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "team.delete",
		Resource: team.ID,
		TeamID:   team.ID,
		Result:   "success",
		Metadata: map[string]any{"name": team.Name},
	})
	return nil
}
