package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/teamflow/internal/monitoring"
	"github.com/charlesng35/teamflow/internal/succession"
)

// ViolationCounter reports how many integrity violations the last sweep found.
type ViolationCounter interface {
	Violations() int
}

// Graph reports the live succession graph. It is degraded when the last
// integrity sweep found stored records the graph would reject.
func Graph(graph *succession.Graph, sweep ViolationCounter) monitoring.Check {
	return monitoring.NewCheck("succession_graph", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if graph == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDown,
				Details:  "graph not initialised",
				Duration: time.Since(start),
			}
		}

		details := fmt.Sprintf("%d tasks, version %d", graph.Len(), graph.Version())
		status := monitoring.StatusUp
		if sweep != nil {
			if n := sweep.Violations(); n > 0 {
				status = monitoring.StatusDegraded
				details = fmt.Sprintf("%s, %d stored records fail validation", details, n)
			}
		}

		return monitoring.ProbeResult{
			Status:   status,
			Details:  details,
			Duration: time.Since(start),
		}
	})
}
