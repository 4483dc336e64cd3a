package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/services"
	"github.com/charlesng35/teamflow/internal/succession"
	appErrors "github.com/charlesng35/teamflow/pkg/errors"
	"github.com/charlesng35/teamflow/pkg/response"
)

// TaskHandler exposes the succession graph over HTTP.
type TaskHandler struct {
	svc *services.TaskService
}

type taskRequest struct {
	ID         string         `json:"id" validate:"omitempty,identifier"`
	Name       string         `json:"name" validate:"required,max=256"`
	Status     string         `json:"status" validate:"omitempty,max=32"`
	TeamID     string         `json:"team_id" validate:"required,identifier"`
	StartDate  string         `json:"start_date" validate:"required,date"`
	StartTime  string         `json:"start_time" validate:"omitempty,clock"`
	EndDate    string         `json:"end_date" validate:"required,date"`
	EndTime    string         `json:"end_time" validate:"omitempty,clock"`
	NextTaskID *string        `json:"next_task_id" validate:"omitnil,successor"`
	Metadata   map[string]any `json:"metadata"`
}

// An empty next_task_id clears the successor.
type updateTaskRequest struct {
	Name       *string        `json:"name" validate:"omitempty,min=1,max=256"`
	Status     *string        `json:"status" validate:"omitempty,max=32"`
	TeamID     *string        `json:"team_id" validate:"omitempty,identifier"`
	StartDate  *string        `json:"start_date" validate:"omitempty,date"`
	StartTime  *string        `json:"start_time" validate:"omitempty,clock"`
	EndDate    *string        `json:"end_date" validate:"omitempty,date"`
	EndTime    *string        `json:"end_time" validate:"omitempty,clock"`
	NextTaskID *string        `json:"next_task_id" validate:"omitnil,successor"`
	Metadata   map[string]any `json:"metadata"`
}

type importTasksRequest struct {
	Tasks []taskRequest `json:"tasks" validate:"dive"`
}

func NewTaskHandler(svc *services.TaskService) (*TaskHandler, error) {
	if svc == nil {
		return nil, errors.New("task handler: service is required")
	}
	return &TaskHandler{svc: svc}, nil
}

// GET /api/tasks lists the tasks visible under the active team.
func (h *TaskHandler) List(c *gin.Context) {
	team, tasks, err := h.svc.ScopedTasks(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, tasks, &response.Meta{
		Total:        len(tasks),
		TeamID:       team.ID,
		GraphVersion: h.svc.Graph().Version(),
	})
}

// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.svc.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// GET /api/tasks/:id/chain
func (h *TaskHandler) Chain(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	chain := h.svc.Chain(requestContext(c), id)
	if chain.Outcome == succession.NotFound {
		response.Error(c, succession.ErrAppTaskNotFound)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, chain, &response.Meta{
		Total:        len(chain.Tasks),
		GraphVersion: h.svc.Graph().Version(),
	})
}

// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var body taskRequest
	if !bindAndValidate(c, &body) {
		return
	}
	task, err := h.svc.Create(requestContext(c), body.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, task)
}

// POST /api/tasks/import replaces the stored tasks with the supplied batch.
func (h *TaskHandler) Import(c *gin.Context) {
	var body importTasksRequest
	if !bindAndValidate(c, &body) {
		return
	}

	inputs := make([]services.TaskInput, 0, len(body.Tasks))
	for _, task := range body.Tasks {
		if task.ID == "" {
			response.Error(c, appErrors.NewBadRequest("every imported task needs an id"))
			return
		}
		inputs = append(inputs, task.input())
	}

	count, err := h.svc.Import(requestContext(c), inputs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, gin.H{"imported": count}, &response.Meta{
		Total:        count,
		GraphVersion: h.svc.Graph().Version(),
	})
}

// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var body updateTaskRequest
	if !bindAndValidate(c, &body) {
		return
	}

	task, err := h.svc.Update(requestContext(c), id, services.UpdateTaskInput{
		Name:       body.Name,
		Status:     body.Status,
		TeamID:     body.TeamID,
		StartDate:  body.StartDate,
		StartTime:  body.StartTime,
		EndDate:    body.EndDate,
		EndTime:    body.EndTime,
		NextTaskID: body.NextTaskID,
		Metadata:   body.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(requestContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (r taskRequest) input() services.TaskInput {
	return services.TaskInput{
		ID:         r.ID,
		Name:       r.Name,
		Status:     r.Status,
		TeamID:     r.TeamID,
		StartDate:  r.StartDate,
		StartTime:  r.StartTime,
		EndDate:    r.EndDate,
		EndTime:    r.EndTime,
		NextTaskID: r.NextTaskID,
		Metadata:   r.Metadata,
	}
}
