package services

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/teamflow/internal/realtime"
	"github.com/charlesng35/teamflow/pkg/logger"
)

// EventPublisher delivers change notifications to a transport. The realtime
// hub and the redis publisher both satisfy it.
type EventPublisher interface {
	Publish(ctx context.Context, stream string, message realtime.Message) error
}

// Publishers fans a message out to every publisher and reports all failures.
type Publishers []EventPublisher

// Publish implements EventPublisher.
func (p Publishers) Publish(ctx context.Context, stream string, message realtime.Message) error {
	var err error
	for _, publisher := range p {
		if publisher == nil {
			continue
		}
		err = multierr.Append(err, publisher.Publish(ctx, stream, message))
	}
	return err
}

// GraphEvent is the payload of graph.changed messages.
type GraphEvent struct {
	Action  string    `json:"action"`
	TaskID  string    `json:"task_id,omitempty"`
	TeamID  string    `json:"team_id,omitempty"`
	Version uint64    `json:"version"`
	Nodes   int       `json:"nodes"`
	At      time.Time `json:"at"`
}

func publishEvent(ctx context.Context, publisher EventPublisher, stream, event string, data any) {
	if publisher == nil {
		return
	}
	message := realtime.Message{Event: event, Data: data}
	if err := publisher.Publish(ensureContext(ctx), stream, message); err != nil {
		logger.WithModule("events").Warn("failed to publish event",
			zap.String("stream", stream),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}
