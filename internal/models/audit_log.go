package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records a change to teams, tasks or the active scope. RequestID
// ties entries written by the same HTTP request together.
type AuditLog struct {
	ID        string            `gorm:"primaryKey;size:64" json:"id"`
	Action    string            `gorm:"not null;index" json:"action"`
	Resource  string            `gorm:"index" json:"resource"`
	TeamID    string            `gorm:"index" json:"team_id,omitempty"`
	Result    string            `gorm:"not null;index" json:"result"`
	RequestID string            `gorm:"index;size:64" json:"request_id,omitempty"`
	IPAddress string            `json:"ip_address"`
	UserAgent string            `json:"user_agent"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
