package succession

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/charlesng35/teamflow/pkg/errors"
)

var (
	// ErrTaskNotFound is returned by mutations addressing an unknown id.
	ErrTaskNotFound = errors.New("succession: task not found")
	// ErrTaskRemoved is returned when inserting an id removed since the last load.
	ErrTaskRemoved = errors.New("succession: task id was removed")
	// ErrEmptyID rejects tasks without an identifier.
	ErrEmptyID = errors.New("succession: task id is required")

	errMissingDate = errors.New("date is required")
	errBadDate     = errors.New("date must be YYYY-MM-DD")
	errBadClock    = errors.New("time must be HH:MM or HH:MM:SS")
)

// DuplicateIDError reports two tasks sharing an id.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("succession: duplicate task id %q", e.ID)
}

// InvalidWindowError reports a task whose schedule cannot form an interval.
type InvalidWindowError struct {
	ID     string
	Reason string
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("succession: task %q has an invalid window: %s", e.ID, e.Reason)
}

// DanglingSuccessorError reports a successor id with no matching node.
type DanglingSuccessorError struct {
	ID     string
	NextID string
}

func (e *DanglingSuccessorError) Error() string {
	return fmt.Sprintf("succession: task %q points at missing successor %q", e.ID, e.NextID)
}

// ReferencedNodeError rejects removal of a node other nodes still point at.
type ReferencedNodeError struct {
	ID           string
	ReferencedBy []string
}

func (e *ReferencedNodeError) Error() string {
	return fmt.Sprintf("succession: task %q is the successor of %s", e.ID, strings.Join(e.ReferencedBy, ", "))
}

// Application errors surfaced to API consumers.
var (
	ErrAppTaskNotFound    = apperrors.New("TASK_NOT_FOUND", "Task not found", http.StatusNotFound)
	ErrAppTaskRemoved     = apperrors.New("TASK_REMOVED", "Task id was removed and cannot be reused", http.StatusConflict)
	ErrAppDuplicateID     = apperrors.New("TASK_DUPLICATE_ID", "Task id already exists", http.StatusConflict)
	ErrAppInvalidWindow   = apperrors.New("TASK_INVALID_WINDOW", "Task schedule window is invalid", http.StatusBadRequest)
	ErrAppDanglingNext    = apperrors.New("TASK_DANGLING_SUCCESSOR", "Task successor does not exist", http.StatusBadRequest)
	ErrAppReferencedTask  = apperrors.New("TASK_REFERENCED", "Task is still referenced as a successor", http.StatusConflict)
	ErrAppTaskIDRequired  = apperrors.New("TASK_ID_REQUIRED", "Task id is required", http.StatusBadRequest)
	ErrAppInvalidTaskLoad = apperrors.New("TASK_LOAD_INVALID", "Task batch failed validation", http.StatusBadRequest)
)

// ToAppError maps graph errors onto API errors, keeping the original as the
// internal cause. Errors it does not recognise are returned unchanged.
func ToAppError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errs := Errors(err); len(errs) > 1 {
		out := ErrAppInvalidTaskLoad.WithInternal(err)
		out.Message = err.Error()
		return out
	}

	var (
		dup        *DuplicateIDError
		window     *InvalidWindowError
		dangling   *DanglingSuccessorError
		referenced *ReferencedNodeError
	)
	switch {
	case errors.As(err, &dup):
		return withMessage(ErrAppDuplicateID, err)
	case errors.As(err, &window):
		return withMessage(ErrAppInvalidWindow, err)
	case errors.As(err, &dangling):
		return withMessage(ErrAppDanglingNext, err)
	case errors.As(err, &referenced):
		return withMessage(ErrAppReferencedTask, err)
	case errors.Is(err, ErrTaskNotFound):
		return ErrAppTaskNotFound.WithInternal(err)
	case errors.Is(err, ErrTaskRemoved):
		return ErrAppTaskRemoved.WithInternal(err)
	case errors.Is(err, ErrEmptyID):
		return ErrAppTaskIDRequired.WithInternal(err)
	}
	return err
}

func withMessage(base *apperrors.AppError, err error) *apperrors.AppError {
	out := base.WithInternal(err)
	out.Message = strings.TrimPrefix(err.Error(), "succession: ")
	return out
}
