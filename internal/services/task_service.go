package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/teamflow/internal/models"
	"github.com/charlesng35/teamflow/internal/realtime"
	"github.com/charlesng35/teamflow/internal/scope"
	"github.com/charlesng35/teamflow/internal/succession"
	apperrors "github.com/charlesng35/teamflow/pkg/errors"
	"github.com/charlesng35/teamflow/pkg/logger"
	"github.com/charlesng35/teamflow/pkg/metrics"
)

const importBatchSize = 100

// TaskInput captures a task to create or import.
type TaskInput struct {
	ID         string
	Name       string
	Status     string
	TeamID     string
	StartDate  string
	StartTime  string
	EndDate    string
	EndTime    string
	NextTaskID *string
	Metadata   map[string]any
}

// UpdateTaskInput describes mutable task fields. A NextTaskID pointing at an
// empty string clears the successor.
type UpdateTaskInput struct {
	Name       *string
	Status     *string
	TeamID     *string
	StartDate  *string
	StartTime  *string
	EndDate    *string
	EndTime    *string
	NextTaskID *string
	Metadata   map[string]any
}

// TaskDetail is a graph task together with its lifecycle state and stored metadata.
type TaskDetail struct {
	succession.Task
	State    string         `json:"state"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskService persists tasks and keeps the in-memory succession graph in step
// with the store. The graph validates every write before it commits.
type TaskService struct {
	db     *gorm.DB
	graph  *succession.Graph
	teams  *TeamService
	audit  *AuditService
	events EventPublisher
	log    *zap.Logger

	// mu serialises writers so the store and the graph change together.
	mu sync.Mutex
}

// NewTaskService constructs a TaskService. A nil graph starts empty.
func NewTaskService(db *gorm.DB, graph *succession.Graph, teams *TeamService, audit *AuditService, events EventPublisher) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	if teams == nil {
		return nil, errors.New("task service: team service is required")
	}
	if graph == nil {
		graph = succession.NewGraph()
	}
	return &TaskService{
		db:     db,
		graph:  graph,
		teams:  teams,
		audit:  audit,
		events: events,
		log:    logger.WithModule("tasks"),
	}, nil
}

// Graph exposes the live graph for read-only consumers.
func (s *TaskService) Graph() *succession.Graph {
	return s.graph
}

// Reload rebuilds the graph from the store. A rejected batch leaves the
// current graph untouched.
func (s *TaskService) Reload(ctx context.Context) error {
	ctx = ensureContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadLocked(ctx); err != nil {
		return err
	}
	s.publish(ctx, "reload", "", "")
	return nil
}

func (s *TaskService) reloadLocked(ctx context.Context) error {
	records, err := s.loadRecords(ctx, s.db)
	if err != nil {
		metrics.GraphLoads.WithLabelValues("error").Inc()
		return err
	}

	tasks := make([]succession.Task, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, toGraphTask(record))
	}

	if err := s.graph.Load(tasks); err != nil {
		metrics.GraphLoads.WithLabelValues("rejected").Inc()
		s.log.Error("stored tasks failed validation",
			zap.Int("violations", len(succession.Errors(err))),
			zap.Error(err),
		)
		return succession.ToAppError(err)
	}

	metrics.GraphLoads.WithLabelValues("success").Inc()
	metrics.GraphNodes.Set(float64(s.graph.Len()))
	s.log.Info("succession graph loaded",
		zap.Int("tasks", s.graph.Len()),
		zap.Uint64("version", s.graph.Version()),
	)
	return nil
}

// VerifyStore validates the persisted records without touching the live
// graph and returns every violation found.
func (s *TaskService) VerifyStore(ctx context.Context) ([]error, error) {
	ctx = ensureContext(ctx)

	records, err := s.loadRecords(ctx, s.db)
	if err != nil {
		return nil, err
	}

	tasks := make([]succession.Task, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, toGraphTask(record))
	}
	return succession.Errors(succession.Validate(tasks)), nil
}

// Import replaces every stored task with the supplied batch. The batch is
// validated as a whole; any failure leaves both the store and the graph as
// they were.
func (s *TaskService) Import(ctx context.Context, inputs []TaskInput) (int, error) {
	ctx = ensureContext(ctx)

	tasks := make([]succession.Task, 0, len(inputs))
	records := make([]models.Task, 0, len(inputs))
	teamIDs := make(map[string]struct{})
	for _, input := range inputs {
		task := input.toGraphTask()
		tasks = append(tasks, task)
		records = append(records, toRecord(task, input.Metadata))
		teamIDs[task.TeamID] = struct{}{}
	}

	if err := succession.Validate(tasks); err != nil {
		metrics.GraphLoads.WithLabelValues("rejected").Inc()
		return 0, succession.ToAppError(err)
	}
	for teamID := range teamIDs {
		if err := s.requireTeam(ctx, teamID); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	graphChanged := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for teamID := range teamIDs {
			if err := teamExists(tx, teamID); err != nil {
				return err
			}
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("task service: clear tasks: %w", err)
		}
		if len(records) > 0 {
			if err := tx.CreateInBatches(&records, importBatchSize).Error; err != nil {
				return fmt.Errorf("task service: import tasks: %w", err)
			}
		}
		if err := s.graph.Load(tasks); err != nil {
			return succession.ToAppError(err)
		}
		graphChanged = true
		return nil
	})
	if err != nil {
		metrics.GraphLoads.WithLabelValues("error").Inc()
		if graphChanged {
			s.resync(ctx)
		}
		return 0, err
	}

	metrics.GraphLoads.WithLabelValues("success").Inc()
	metrics.GraphNodes.Set(float64(s.graph.Len()))

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "task.import",
		Resource: "tasks",
		Result:   "success",
		Metadata: map[string]any{"count": len(tasks)},
	})
	s.publish(ctx, "import", "", "")

	return len(tasks), nil
}

// Create persists a task after the graph accepts it.
func (s *TaskService) Create(ctx context.Context, input TaskInput) (*TaskDetail, error) {
	ctx = ensureContext(ctx)

	task := input.toGraphTask()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if strings.TrimSpace(task.Name) == "" {
		return nil, apperrors.NewBadRequest("task name is required")
	}
	if _, err := task.Window(); err != nil {
		return nil, succession.ToAppError(err)
	}
	if err := s.requireTeam(ctx, task.TeamID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.graph.Get(task.ID); exists {
		return nil, succession.ToAppError(&succession.DuplicateIDError{ID: task.ID})
	}

	record := toRecord(task, input.Metadata)
	graphChanged := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := teamExists(tx, task.TeamID); err != nil {
			return err
		}
		if err := tx.Create(&record).Error; err != nil {
			if _, dup := uniqueViolation(err); dup {
				return succession.ToAppError(&succession.DuplicateIDError{ID: task.ID})
			}
			if foreignKeyViolation(err) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("task service: create task: %w", err)
		}
		if err := s.graph.Insert(task); err != nil {
			return succession.ToAppError(err)
		}
		graphChanged = true
		return nil
	})
	if err != nil {
		if graphChanged {
			s.resync(ctx)
		}
		s.auditFailure(ctx, "task.create", task, err)
		return nil, err
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "task.create",
		Resource: task.ID,
		TeamID:   task.TeamID,
		Result:   "success",
		Metadata: map[string]any{"name": task.Name, "next_task_id": task.Successor()},
	})
	s.publish(ctx, "create", task.ID, task.TeamID)

	return s.detail(task.ID, input.Metadata)
}

// Update applies a partial change. The graph re-validates the successor and
// window before the store commits.
func (s *TaskService) Update(ctx context.Context, id string, input UpdateTaskInput) (*TaskDetail, error) {
	ctx = ensureContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, succession.ErrAppTaskIDRequired
	}

	if input.TeamID != nil {
		if err := s.requireTeam(ctx, *input.TeamID); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.graph.Get(id)
	if !ok {
		return nil, succession.ErrAppTaskNotFound
	}

	updated := input.apply(current)
	if _, err := updated.Window(); err != nil {
		return nil, succession.ToAppError(err)
	}

	columns := map[string]any{
		"name":         updated.Name,
		"status":       string(updated.Status),
		"team_id":      updated.TeamID,
		"start_date":   updated.StartDate,
		"start_time":   updated.StartTime,
		"end_date":     updated.EndDate,
		"end_time":     updated.EndTime,
		"next_task_id": updated.NextTaskID,
		"updated_at":   time.Now().UTC(),
	}
	if input.Metadata != nil {
		columns["metadata"] = datatypes.JSONMap(input.Metadata)
	}

	graphChanged := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.TeamID != nil {
			if err := teamExists(tx, updated.TeamID); err != nil {
				return err
			}
		}
		result := tx.Model(&models.Task{}).Where("id = ?", id).Updates(columns)
		if result.Error != nil {
			if foreignKeyViolation(result.Error) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("task service: update task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return succession.ErrAppTaskNotFound
		}
		if err := s.graph.Update(updated); err != nil {
			return succession.ToAppError(err)
		}
		graphChanged = true
		return nil
	})
	if err != nil {
		if graphChanged {
			s.resync(ctx)
		}
		s.auditFailure(ctx, "task.update", updated, err)
		return nil, err
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "task.update",
		Resource: id,
		TeamID:   updated.TeamID,
		Result:   "success",
		Metadata: map[string]any{"next_task_id": updated.Successor(), "status": string(updated.Status)},
	})
	s.publish(ctx, "update", id, updated.TeamID)

	return s.detail(id, nil)
}

// Delete removes a task nobody else points at.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return succession.ErrAppTaskIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.graph.Get(id)
	if !ok {
		return succession.ErrAppTaskNotFound
	}

	graphChanged := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Task{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("task service: delete task: %w", err)
		}
		if err := s.graph.Remove(id); err != nil {
			return succession.ToAppError(err)
		}
		graphChanged = true
		return nil
	})
	if err != nil {
		if graphChanged {
			s.resync(ctx)
		}
		s.auditFailure(ctx, "task.delete", current, err)
		return err
	}

	metrics.GraphNodes.Set(float64(s.graph.Len()))
	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "task.delete",
		Resource: id,
		TeamID:   current.TeamID,
		Result:   "success",
	})
	s.publish(ctx, "delete", id, current.TeamID)
	return nil
}

// Get returns a single task with its stored metadata.
func (s *TaskService) Get(ctx context.Context, id string) (*TaskDetail, error) {
	ctx = ensureContext(ctx)

	id = strings.TrimSpace(id)
	if _, ok := s.graph.Get(id); !ok {
		return nil, succession.ErrAppTaskNotFound
	}

	var record models.Task
	err := s.db.WithContext(ctx).Select("id", "metadata").First(&record, "id = ?", id).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("task service: load task metadata: %w", err)
	}
	return s.detail(id, record.Metadata)
}

// Chain resolves the successor chain starting at id.
func (s *TaskService) Chain(_ context.Context, id string) succession.Chain {
	chain := s.graph.ResolveChain(strings.TrimSpace(id))
	metrics.ChainResolutions.WithLabelValues(chain.Outcome.String()).Inc()
	return chain
}

// TeamTasks lists the tasks owned by an existing team.
func (s *TaskService) TeamTasks(ctx context.Context, teamID string) ([]succession.Task, error) {
	if err := s.requireTeam(ensureContext(ctx), teamID); err != nil {
		return nil, err
	}
	return s.graph.TeamTasks(strings.TrimSpace(teamID)), nil
}

// Conflicts lists overlapping task pairs of an existing team.
func (s *TaskService) Conflicts(ctx context.Context, teamID string) ([]succession.Conflict, error) {
	if err := s.requireTeam(ensureContext(ctx), teamID); err != nil {
		return nil, err
	}
	return s.graph.Conflicts(strings.TrimSpace(teamID)), nil
}

// ScopedTasks lists the tasks visible under the scope carried by ctx.
func (s *TaskService) ScopedTasks(ctx context.Context) (scope.Team, []succession.Task, error) {
	sc, err := scope.FromContext(ctx)
	if err != nil {
		return scope.Team{}, nil, err
	}
	team, err := sc.Require()
	if err != nil {
		return scope.Team{}, nil, err
	}

	visible := make([]succession.Task, 0)
	for _, task := range s.graph.Snapshot() {
		if sc.Visible(task.TeamID) {
			visible = append(visible, task)
		}
	}
	return team, visible, nil
}

func (s *TaskService) requireTeam(ctx context.Context, teamID string) error {
	if strings.TrimSpace(teamID) == "" {
		return apperrors.NewBadRequest("team_id is required")
	}
	_, err := s.teams.Get(ctx, teamID)
	return err
}

// teamExists repeats the team lookup inside a write transaction, so a team
// deleted after the early check cannot end up owning the task.
func teamExists(tx *gorm.DB, teamID string) error {
	var count int64
	if err := tx.Model(&models.Team{}).Where("id = ?", teamID).Count(&count).Error; err != nil {
		return fmt.Errorf("task service: check team: %w", err)
	}
	if count == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (s *TaskService) loadRecords(ctx context.Context, db *gorm.DB) ([]models.Task, error) {
	var records []models.Task
	if err := db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("task service: load tasks: %w", err)
	}
	return records, nil
}

// resync reloads the graph after a write whose commit outcome is unknown.
func (s *TaskService) resync(ctx context.Context) {
	if err := s.reloadLocked(ctx); err != nil {
		s.log.Error("failed to resync graph with store", zap.Error(err))
	}
}

func (s *TaskService) detail(id string, metadata map[string]any) (*TaskDetail, error) {
	task, ok := s.graph.Get(id)
	if !ok {
		return nil, succession.ErrAppTaskNotFound
	}
	return &TaskDetail{
		Task:     task,
		State:    s.graph.State(id).String(),
		Metadata: metadata,
	}, nil
}

func (s *TaskService) publish(ctx context.Context, action, taskID, teamID string) {
	publishEvent(ctx, s.events, realtime.StreamTasks, realtime.EventGraphChanged, GraphEvent{
		Action:  action,
		TaskID:  taskID,
		TeamID:  teamID,
		Version: s.graph.Version(),
		Nodes:   s.graph.Len(),
		At:      time.Now().UTC(),
	})
}

func (s *TaskService) auditFailure(ctx context.Context, action string, task succession.Task, err error) {
	recordAudit(s.audit, ctx, AuditEntry{
		Action:   action,
		Resource: task.ID,
		TeamID:   task.TeamID,
		Result:   "failure",
		Metadata: map[string]any{"error": err.Error()},
	})
}

func (in TaskInput) toGraphTask() succession.Task {
	status := succession.Status(strings.TrimSpace(in.Status))
	if status == "" {
		status = succession.StatusActive
	}
	return succession.Task{
		ID:         strings.TrimSpace(in.ID),
		Name:       strings.TrimSpace(in.Name),
		Status:     status,
		TeamID:     strings.TrimSpace(in.TeamID),
		StartDate:  strings.TrimSpace(in.StartDate),
		StartTime:  strings.TrimSpace(in.StartTime),
		EndDate:    strings.TrimSpace(in.EndDate),
		EndTime:    strings.TrimSpace(in.EndTime),
		NextTaskID: nonEmpty(trimmedPtr(in.NextTaskID)),
	}
}

func (in UpdateTaskInput) apply(task succession.Task) succession.Task {
	assign := func(dst *string, value *string) {
		if value != nil {
			*dst = strings.TrimSpace(*value)
		}
	}
	assign(&task.Name, in.Name)
	assign(&task.TeamID, in.TeamID)
	assign(&task.StartDate, in.StartDate)
	assign(&task.StartTime, in.StartTime)
	assign(&task.EndDate, in.EndDate)
	assign(&task.EndTime, in.EndTime)
	if in.Status != nil {
		task.Status = succession.Status(strings.TrimSpace(*in.Status))
	}
	if in.NextTaskID != nil {
		task.NextTaskID = nonEmpty(trimmedPtr(in.NextTaskID))
	}
	return task
}

func nonEmpty(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}

func toGraphTask(record models.Task) succession.Task {
	return succession.Task{
		ID:         record.ID,
		Name:       record.Name,
		Status:     succession.Status(record.Status),
		TeamID:     record.TeamID,
		StartDate:  record.StartDate,
		StartTime:  record.StartTime,
		EndDate:    record.EndDate,
		EndTime:    record.EndTime,
		NextTaskID: record.NextTaskID,
	}
}

func toRecord(task succession.Task, metadata map[string]any) models.Task {
	record := models.Task{
		ID:         task.ID,
		Name:       task.Name,
		Status:     string(task.Status),
		TeamID:     task.TeamID,
		StartDate:  task.StartDate,
		StartTime:  task.StartTime,
		EndDate:    task.EndDate,
		EndTime:    task.EndTime,
		NextTaskID: task.NextTaskID,
	}
	if metadata != nil {
		record.Metadata = datatypes.JSONMap(metadata)
	}
	return record
}
