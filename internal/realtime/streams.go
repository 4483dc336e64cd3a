package realtime

import "strings"

// Named realtime streams.
const (
	StreamScope = "scope"
	StreamTasks = "tasks"
)

// Event names delivered on the streams.
const (
	EventScopeChanged = "scope.changed"
	EventGraphChanged = "graph.changed"
	// EventSubscriptions acknowledges a subscribe or unsubscribe with the
	// client's current stream list.
	EventSubscriptions = "subscriptions"
	EventPong          = "pong"
)

// KnownStreams lists every stream a client may subscribe to.
func KnownStreams() map[string]struct{} {
	return map[string]struct{}{
		StreamScope: {},
		StreamTasks: {},
	}
}

// NormalizeStream folds a stream name to its canonical form.
func NormalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

// NormalizeStreams normalises names, dropping blanks and duplicates while
// keeping first-seen order.
func NormalizeStreams(streams ...string) []string {
	seen := make(map[string]struct{}, len(streams))
	out := make([]string, 0, len(streams))
	for _, stream := range streams {
		stream = NormalizeStream(stream)
		if stream == "" {
			continue
		}
		if _, dup := seen[stream]; dup {
			continue
		}
		seen[stream] = struct{}{}
		out = append(out, stream)
	}
	return out
}
