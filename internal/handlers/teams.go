package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/services"
	appErrors "github.com/charlesng35/teamflow/pkg/errors"
	"github.com/charlesng35/teamflow/pkg/response"
)

type TeamHandler struct {
	teams *services.TeamService
	tasks *services.TaskService
}

type createTeamRequest struct {
	ID          string `json:"id" validate:"omitempty,identifier"`
	Name        string `json:"name" validate:"required,min=2,max=128"`
	Description string `json:"description" validate:"omitempty,max=512"`
	Type        string `json:"type" validate:"omitempty,max=64"`
	Status      string `json:"status" validate:"omitempty,max=32"`
	LeaderID    string `json:"leader_id" validate:"omitempty,max=64"`
	WorkspaceID string `json:"workspace_id" validate:"omitempty,max=64"`
}

type updateTeamRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=128"`
	Description *string `json:"description" validate:"omitempty,max=512"`
	Type        *string `json:"type" validate:"omitempty,max=64"`
	Status      *string `json:"status" validate:"omitempty,max=32"`
	LeaderID    *string `json:"leader_id" validate:"omitempty,max=64"`
	WorkspaceID *string `json:"workspace_id" validate:"omitempty,max=64"`
}

func NewTeamHandler(teams *services.TeamService, tasks *services.TaskService) (*TeamHandler, error) {
	if teams == nil || tasks == nil {
		return nil, errors.New("team handler: team and task services are required")
	}
	return &TeamHandler{teams: teams, tasks: tasks}, nil
}

// GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.teams.List(requestContext(c), services.TeamListOptions{
		WorkspaceID: strings.TrimSpace(c.Query("workspace_id")),
		Status:      strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, teams, &response.Meta{Total: len(teams)})
}

// GET /api/teams/:id
func (h *TeamHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	team, err := h.teams.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}

// POST /api/teams
func (h *TeamHandler) Create(c *gin.Context) {
	var body createTeamRequest
	if !bindAndValidate(c, &body) {
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		response.Error(c, appErrors.NewBadRequest("name is required"))
		return
	}

	team, err := h.teams.Create(requestContext(c), services.CreateTeamInput{
		ID:          strings.TrimSpace(body.ID),
		Name:        name,
		Description: strings.TrimSpace(body.Description),
		Type:        strings.TrimSpace(body.Type),
		Status:      strings.TrimSpace(body.Status),
		LeaderID:    strings.TrimSpace(body.LeaderID),
		WorkspaceID: strings.TrimSpace(body.WorkspaceID),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, team)
}

// PATCH /api/teams/:id
func (h *TeamHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body updateTeamRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if body.Name == nil && body.Description == nil && body.Type == nil &&
		body.Status == nil && body.LeaderID == nil && body.WorkspaceID == nil {
		response.Error(c, appErrors.NewBadRequest("no fields provided for update"))
		return
	}
	if body.Name != nil && strings.TrimSpace(*body.Name) == "" {
		response.Error(c, appErrors.NewBadRequest("name must not be empty"))
		return
	}

	team, err := h.teams.Update(requestContext(c), id, services.UpdateTeamInput{
		Name:        body.Name,
		Description: body.Description,
		Type:        body.Type,
		Status:      body.Status,
		LeaderID:    body.LeaderID,
		WorkspaceID: body.WorkspaceID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}

// DELETE /api/teams/:id
func (h *TeamHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.teams.Delete(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/teams/:id/tasks
func (h *TeamHandler) Tasks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tasks, err := h.tasks.TeamTasks(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, tasks, &response.Meta{
		Total:        len(tasks),
		TeamID:       id,
		GraphVersion: h.tasks.Graph().Version(),
	})
}

// GET /api/teams/:id/conflicts
func (h *TeamHandler) Conflicts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	conflicts, err := h.tasks.Conflicts(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, conflicts, &response.Meta{
		Total:        len(conflicts),
		TeamID:       id,
		GraphVersion: h.tasks.Graph().Version(),
	})
}
