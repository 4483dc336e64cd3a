package models

// Team groups tasks. LeaderID and WorkspaceID reference records owned by other
// systems and are stored as opaque identifiers.
type Team struct {
	BaseModel

	Name        string `gorm:"not null;uniqueIndex" json:"name"`
	Description string `json:"description"`
	Type        string `gorm:"index" json:"type"`
	Status      string `gorm:"index" json:"status"`
	LeaderID    string `json:"leader_id"`
	WorkspaceID string `gorm:"index" json:"workspace_id"`
}
