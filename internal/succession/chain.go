package succession

import (
	"fmt"
	"iter"
)

// Outcome classifies a chain resolution.
type Outcome int

const (
	// NotFound means the start id is absent from the graph.
	NotFound Outcome = iota
	// Terminated means traversal reached a node without a successor.
	Terminated
	// Cyclic means a successor link revisited a node already in the chain.
	Cyclic
)

func (o Outcome) String() string {
	switch o {
	case Terminated:
		return "terminated"
	case Cyclic:
		return "cyclic"
	}
	return "not_found"
}

// MarshalText renders the outcome as its name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "terminated":
		*o = Terminated
	case "cyclic":
		*o = Cyclic
	case "not_found":
		*o = NotFound
	default:
		return fmt.Errorf("succession: unknown outcome %q", text)
	}
	return nil
}

// Chain is the result of following successor links from a start node.
// Tasks holds each visited node once, in traversal order. CycleStartID is set
// only for Cyclic chains and names the node the last link pointed back to.
type Chain struct {
	Outcome      Outcome `json:"outcome"`
	Tasks        []Task  `json:"tasks"`
	CycleStartID string  `json:"cycle_start_id,omitempty"`
}

// IDs lists the ids of the chain in order.
func (c Chain) IDs() []string {
	ids := make([]string, len(c.Tasks))
	for i, t := range c.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// ResolveChain follows successor links from startID against a consistent view
// of the graph.
func (g *Graph) ResolveChain(startID string) Chain {
	g.mu.RLock()
	defer g.mu.RUnlock()

	chain := Chain{Tasks: []Task{}}
	outcome, cycleStart := traverse(startID, g.lookupLocked, func(t Task) bool {
		chain.Tasks = append(chain.Tasks, t)
		return true
	})
	chain.Outcome = outcome
	chain.CycleStartID = cycleStart
	return chain
}

// Walk yields the chain starting at startID lazily. Each step reads the graph
// independently, so mutations made between steps are visible; the walk still
// stops at the first revisited id.
func (g *Graph) Walk(startID string) iter.Seq[Task] {
	return func(yield func(Task) bool) {
		traverse(startID, g.lookup, yield)
	}
}

func (g *Graph) lookup(id string) (Task, bool) {
	return g.Get(id)
}

func (g *Graph) lookupLocked(id string) (Task, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Task{}, false
	}
	return n.task.clone(), true
}

// traverse walks successor links with a visited set. A link to a missing node
// ends the walk as Terminated; Load and Insert prevent that state.
func traverse(startID string, lookup func(string) (Task, bool), yield func(Task) bool) (Outcome, string) {
	current, ok := lookup(startID)
	if !ok {
		return NotFound, ""
	}

	visited := make(map[string]struct{})
	for {
		visited[current.ID] = struct{}{}
		if !yield(current) {
			return Terminated, ""
		}

		next := current.Successor()
		if next == "" {
			return Terminated, ""
		}
		if _, seen := visited[next]; seen {
			return Cyclic, next
		}

		current, ok = lookup(next)
		if !ok {
			return Terminated, ""
		}
	}
}
