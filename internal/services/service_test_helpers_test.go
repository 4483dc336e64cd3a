package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/teamflow/internal/database/testutil"
	"github.com/charlesng35/teamflow/internal/realtime"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

type publishedMessage struct {
	stream  string
	message realtime.Message
}

func (r *recordingPublisher) Publish(_ context.Context, stream string, message realtime.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, publishedMessage{stream: stream, message: message})
	return r.err
}

func (r *recordingPublisher) events(stream string) []realtime.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.Message
	for _, m := range r.messages {
		if m.stream == stream {
			out = append(out, m.message)
		}
	}
	return out
}

type serviceFixture struct {
	db        *gorm.DB
	audit     *AuditService
	teams     *TeamService
	tasks     *TaskService
	scopes    *ScopeService
	publisher *recordingPublisher
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	teams, err := NewTeamService(db, audit)
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	tasks, err := NewTaskService(db, nil, teams, audit, publisher)
	require.NoError(t, err)
	require.NoError(t, tasks.Reload(context.Background()))

	scopes, err := NewScopeService(teams, audit, publisher)
	require.NoError(t, err)

	return serviceFixture{
		db:        db,
		audit:     audit,
		teams:     teams,
		tasks:     tasks,
		scopes:    scopes,
		publisher: publisher,
	}
}

func strPtr(value string) *string {
	return &value
}
