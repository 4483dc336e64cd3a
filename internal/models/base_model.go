// Package models holds the gorm records behind teams, tasks and the audit log.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is the string id and timestamps shared by team records.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate fills in an id when the caller left it empty.
func (m *BaseModel) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
