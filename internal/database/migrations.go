package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/teamflow/internal/models"
)

// schema lists every persisted model. Teams precede tasks because
// tasks.team_id references them.
var schema = []any{
	&models.Team{},
	&models.Task{},
	&models.AuditLog{},
}

// AutoMigrate creates or updates the tables behind schema.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	if err := db.AutoMigrate(schema...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
