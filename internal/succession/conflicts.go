package succession

// Conflict is an unordered pair of same-team tasks whose windows overlap.
// A always sorts before B.
type Conflict struct {
	A Task `json:"a"`
	B Task `json:"b"`
}

// Conflicts returns every overlapping pair among the tasks of teamID.
// Windows are compared only between tasks starting on the same date; windows
// that cross midnight are compared as-is and may miss a next-day overlap.
func (g *Graph) Conflicts(teamID string) []Conflict {
	g.mu.RLock()
	type entry struct {
		task   Task
		window Window
	}
	var entries []entry
	for _, n := range g.nodes {
		if n.task.TeamID == teamID {
			entries = append(entries, entry{task: n.task.clone(), window: n.window})
		}
	}
	g.mu.RUnlock()

	tasks := make([]Task, len(entries))
	windows := make(map[string]Window, len(entries))
	for i, e := range entries {
		tasks[i] = e.task
		windows[e.task.ID] = e.window
	}
	sortTasks(tasks)

	out := []Conflict{}
	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			a, b := tasks[i], tasks[j]
			if a.StartDate != b.StartDate {
				continue
			}
			if windows[a.ID].Overlaps(windows[b.ID]) {
				out = append(out, Conflict{A: a, B: b})
			}
		}
	}
	return out
}
