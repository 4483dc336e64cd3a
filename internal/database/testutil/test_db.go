// Package testutil opens throwaway sqlite databases for package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/teamflow/internal/database"
	"github.com/charlesng35/teamflow/internal/models"
)

// TestDBOption customises MustOpenTestDB.
type TestDBOption func(*testDB)

type testDB struct {
	migrate  bool
	fixtures bool
	tasks    []models.Task
}

// WithAutoMigrate creates the schema.
func WithAutoMigrate() TestDBOption {
	return func(o *testDB) { o.migrate = true }
}

// WithSeedData creates the schema and inserts the sample teams and tasks.
func WithSeedData() TestDBOption {
	return func(o *testDB) {
		o.migrate = true
		o.fixtures = true
	}
}

// WithTasks inserts extra task rows after any fixtures. The rows bypass the
// succession graph, so tests can stage records it would reject.
func WithTasks(tasks ...models.Task) TestDBOption {
	return func(o *testDB) {
		o.migrate = true
		o.tasks = append(o.tasks, tasks...)
	}
}

// MustOpenTestDB opens an isolated in-memory sqlite database with query
// logging off. It is closed by t.Cleanup.
func MustOpenTestDB(t *testing.T, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	var o testDB
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.Open(database.Config{Driver: "sqlite", SlowQuery: -1})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	switch {
	case o.fixtures:
		require.NoError(t, database.AutoMigrateAndSeed(db))
	case o.migrate:
		require.NoError(t, database.AutoMigrate(db))
	}
	if len(o.tasks) > 0 {
		require.NoError(t, db.Create(&o.tasks).Error)
	}
	return db
}
