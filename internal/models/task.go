package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Task is the persisted form of a succession graph node. TeamID is a foreign
// key that blocks deleting a team while it owns tasks. NextTaskID is not:
// successor integrity is enforced by the graph before writes.
type Task struct {
	ID         string            `gorm:"primaryKey;size:64" json:"id"`
	Name       string            `gorm:"not null" json:"name"`
	Status     string            `gorm:"index" json:"status"`
	TeamID     string            `gorm:"index;not null;size:64" json:"team_id"`
	StartDate  string            `gorm:"size:10" json:"start_date"`
	StartTime  string            `gorm:"size:8" json:"start_time"`
	EndDate    string            `gorm:"size:10" json:"end_date"`
	EndTime    string            `gorm:"size:8" json:"end_time"`
	NextTaskID *string           `gorm:"index;size:64" json:"next_task_id,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	Team *Team `gorm:"foreignKey:TeamID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// BeforeCreate assigns a UUID when the caller did not pick an id.
func (t *Task) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
