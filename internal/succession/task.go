// Package succession models tasks linked by successor pointers and answers
// chain, membership and schedule-conflict queries over them.
//
// A Graph is an in-memory arena keyed by task id. Successor links are stored
// as ids and resolved on demand, so traversal never recurses and cycles are
// reported as results rather than errors.
package succession

import (
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle label of a task. The set is open; the constants
// below are the values the sample data uses.
type Status string

const (
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Task is a single node of the succession graph.
type Task struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Status     Status  `json:"status"`
	TeamID     string  `json:"team_id"`
	StartDate  string  `json:"start_date"`
	StartTime  string  `json:"start_time"`
	EndDate    string  `json:"end_date"`
	EndTime    string  `json:"end_time"`
	NextTaskID *string `json:"next_task_id,omitempty"`
}

// HasSuccessor reports whether the task points at another node.
func (t Task) HasSuccessor() bool {
	return t.NextTaskID != nil && strings.TrimSpace(*t.NextTaskID) != ""
}

// Successor returns the successor id, or "" for a terminal node.
func (t Task) Successor() string {
	if !t.HasSuccessor() {
		return ""
	}
	return strings.TrimSpace(*t.NextTaskID)
}

// Next is a convenience for building successor pointers.
func Next(id string) *string {
	return &id
}

func (t Task) normalised() Task {
	t.ID = strings.TrimSpace(t.ID)
	t.TeamID = strings.TrimSpace(t.TeamID)
	t.StartDate = strings.TrimSpace(t.StartDate)
	t.StartTime = strings.TrimSpace(t.StartTime)
	t.EndDate = strings.TrimSpace(t.EndDate)
	t.EndTime = strings.TrimSpace(t.EndTime)
	if t.HasSuccessor() {
		next := t.Successor()
		t.NextTaskID = &next
	} else {
		t.NextTaskID = nil
	}
	return t
}

// clone detaches the successor pointer so callers cannot mutate graph state.
func (t Task) clone() Task {
	if t.NextTaskID != nil {
		next := *t.NextTaskID
		t.NextTaskID = &next
	}
	return t
}

// Window is the scheduling interval of a task, half-open: [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open windows share any instant.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

const dateLayout = "2006-01-02"

var clockLayouts = []string{"15:04", "15:04:05"}

// Window combines the date and time fields of the task into an interval.
// A missing start time means the start of the day; a missing end time means
// the end of the end date. The end date may not precede the start date even
// when the end-of-day extension would make the instants meet.
func (t Task) Window() (Window, error) {
	startDay, start, err := combine(t.StartDate, t.StartTime, false)
	if err != nil {
		return Window{}, &InvalidWindowError{ID: t.ID, Reason: "start: " + err.Error()}
	}
	endDay, end, err := combine(t.EndDate, t.EndTime, true)
	if err != nil {
		return Window{}, &InvalidWindowError{ID: t.ID, Reason: "end: " + err.Error()}
	}
	if endDay.Before(startDay) {
		return Window{}, &InvalidWindowError{ID: t.ID, Reason: "end date is before start date"}
	}
	if start.After(end) {
		return Window{}, &InvalidWindowError{ID: t.ID, Reason: "start is after end"}
	}
	return Window{Start: start, End: end}, nil
}

// combine returns the parsed calendar day and the instant it denotes with
// clock applied.
func combine(date, clock string, endOfDay bool) (day, instant time.Time, err error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, time.Time{}, errMissingDate
	}
	day, err = time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, time.Time{}, errBadDate
	}

	clock = strings.TrimSpace(clock)
	if clock == "" {
		if endOfDay {
			return day, day.AddDate(0, 0, 1), nil
		}
		return day, day, nil
	}

	for _, layout := range clockLayouts {
		if tod, err := time.Parse(layout, clock); err == nil {
			return day, day.Add(time.Duration(tod.Hour())*time.Hour +
				time.Duration(tod.Minute())*time.Minute +
				time.Duration(tod.Second())*time.Second), nil
		}
	}
	return time.Time{}, time.Time{}, errBadClock
}

// compareIDs orders numeric ids numerically and everything else lexically,
// numbers first. Numerically equal ids such as "7" and "07" fall back to
// lexical order so sorting stays deterministic.
func compareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
