package succession

import (
	"slices"
	"sync"

	"go.uber.org/multierr"
)

// State is the lifecycle position of a task identity within a Graph.
type State int

const (
	StateUnknown State = iota
	StatePending
	StateActive
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

type node struct {
	task   Task
	window Window
	state  State
}

// Graph stores task nodes indexed by id. It is safe for concurrent use by one
// writer and any number of readers; readers never observe a partial load.
type Graph struct {
	mu      sync.RWMutex
	nodes   map[string]*node
	removed map[string]struct{}
	version uint64
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*node),
		removed: make(map[string]struct{}),
	}
}

// Errors splits a validation error returned by Load or Validate into the
// individual record failures.
func Errors(err error) []error {
	return multierr.Errors(err)
}

// Validate checks a batch the same way Load does without touching any graph.
func Validate(tasks []Task) error {
	_, err := build(tasks)
	return err
}

// Load replaces the node set with tasks. Every record is validated before the
// swap; on failure the error lists all offending records and the graph keeps
// its previous contents. A successful load also clears removal tombstones.
func (g *Graph) Load(tasks []Task) error {
	candidate, err := build(tasks)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = candidate
	g.removed = make(map[string]struct{})
	g.version++
	return nil
}

func build(tasks []Task) (map[string]*node, error) {
	nodes := make(map[string]*node, len(tasks))
	order := make([]string, 0, len(tasks))

	var errs error
	for _, raw := range tasks {
		task := raw.normalised()
		if task.ID == "" {
			errs = multierr.Append(errs, ErrEmptyID)
			continue
		}
		if _, exists := nodes[task.ID]; exists {
			errs = multierr.Append(errs, &DuplicateIDError{ID: task.ID})
			continue
		}

		window, err := task.Window()
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		// Registered even when the window is bad so successors pointing at it
		// do not also report as dangling.
		nodes[task.ID] = &node{task: task, window: window, state: StatePending}
		order = append(order, task.ID)
	}

	for _, id := range order {
		n := nodes[id]
		if !n.task.HasSuccessor() {
			continue
		}
		next := n.task.Successor()
		if _, ok := nodes[next]; !ok {
			errs = multierr.Append(errs, &DanglingSuccessorError{ID: id, NextID: next})
		}
	}

	if errs != nil {
		return nil, errs
	}

	for _, n := range nodes {
		n.state = StateActive
	}
	return nodes, nil
}

// Insert adds a single task, validating it against the current node set.
// A task may name itself as its successor.
func (g *Graph) Insert(task Task) error {
	task = task.normalised()
	if task.ID == "" {
		return ErrEmptyID
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, gone := g.removed[task.ID]; gone {
		return ErrTaskRemoved
	}
	if _, exists := g.nodes[task.ID]; exists {
		return &DuplicateIDError{ID: task.ID}
	}

	n, err := g.checkLocked(task)
	if err != nil {
		return err
	}
	g.nodes[task.ID] = n
	g.version++
	return nil
}

// Update replaces the fields of an existing task. The id cannot change.
func (g *Graph) Update(task Task) error {
	task = task.normalised()
	if task.ID == "" {
		return ErrEmptyID
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[task.ID]; !exists {
		return ErrTaskNotFound
	}

	n, err := g.checkLocked(task)
	if err != nil {
		return err
	}
	g.nodes[task.ID] = n
	g.version++
	return nil
}

func (g *Graph) checkLocked(task Task) (*node, error) {
	window, err := task.Window()
	if err != nil {
		return nil, err
	}
	if next := task.Successor(); next != "" && next != task.ID {
		if _, ok := g.nodes[next]; !ok {
			return nil, &DanglingSuccessorError{ID: task.ID, NextID: next}
		}
	}
	return &node{task: task, window: window, state: StateActive}, nil
}

// Remove deletes a task. It fails with ReferencedNodeError while any other
// task names it as successor; a self-reference does not block removal.
func (g *Graph) Remove(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return ErrTaskNotFound
	}

	var referrers []string
	for otherID, other := range g.nodes {
		if otherID != id && other.task.Successor() == id {
			referrers = append(referrers, otherID)
		}
	}
	if len(referrers) > 0 {
		slices.SortFunc(referrers, compareIDs)
		return &ReferencedNodeError{ID: id, ReferencedBy: referrers}
	}

	delete(g.nodes, id)
	g.removed[id] = struct{}{}
	g.version++
	return nil
}

// Get returns a copy of the task with the given id.
func (g *Graph) Get(id string) (Task, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return Task{}, false
	}
	return n.task.clone(), true
}

// State reports where an id sits in the node lifecycle.
func (g *Graph) State(id string) State {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if n, ok := g.nodes[id]; ok {
		return n.state
	}
	if _, ok := g.removed[id]; ok {
		return StateRemoved
	}
	return StateUnknown
}

// Len returns the number of active nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Version increases on every successful mutation.
func (g *Graph) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Snapshot returns every task ordered by id.
func (g *Graph) Snapshot() []Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Task, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.task.clone())
	}
	sortTasks(out)
	return out
}

// TeamTasks returns the tasks owned by teamID ordered by id, regardless of
// chain structure.
func (g *Graph) TeamTasks(teamID string) []Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := []Task{}
	for _, n := range g.nodes {
		if n.task.TeamID == teamID {
			out = append(out, n.task.clone())
		}
	}
	sortTasks(out)
	return out
}

func sortTasks(tasks []Task) {
	slices.SortFunc(tasks, func(a, b Task) int { return compareIDs(a.ID, b.ID) })
}
