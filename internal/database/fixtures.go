package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/teamflow/internal/models"
)

// Fixture team identifiers.
const (
	FixtureTeamDesign      = "team-design"
	FixtureTeamEngineering = "team-engineering"
)

func next(id string) *string { return &id }

// FixtureTeams is the sample team dataset.
func FixtureTeams() []models.Team {
	return []models.Team{
		{
			BaseModel:   models.BaseModel{ID: FixtureTeamDesign},
			Name:        "Design",
			Description: "Product and visual design",
			Type:        "Product",
			Status:      "Active",
			LeaderID:    "member-1",
			WorkspaceID: "workspace-1",
		},
		{
			BaseModel:   models.BaseModel{ID: FixtureTeamEngineering},
			Name:        "Engineering",
			Description: "Platform and application engineering",
			Type:        "Engineering",
			Status:      "Active",
			LeaderID:    "member-2",
			WorkspaceID: "workspace-1",
		},
	}
}

// FixtureTasks is the sample project dataset. It includes a self-referencing
// task (7) and overlapping engineering windows (1 and 2).
func FixtureTasks() []models.Task {
	return []models.Task{
		{ID: "1", Name: "Project 1", Status: "Active", TeamID: FixtureTeamEngineering,
			StartDate: "2024-01-15", StartTime: "09:00", EndDate: "2024-01-15", EndTime: "11:00", NextTaskID: next("2")},
		{ID: "2", Name: "Project 2", Status: "Active", TeamID: FixtureTeamEngineering,
			StartDate: "2024-01-15", StartTime: "10:30", EndDate: "2024-01-15", EndTime: "12:00", NextTaskID: next("4")},
		{ID: "3", Name: "Project 3", Status: "Active", TeamID: FixtureTeamDesign,
			StartDate: "2024-01-16", StartTime: "09:00", EndDate: "2024-01-16", EndTime: "12:00", NextTaskID: next("5")},
		{ID: "4", Name: "Project 4", Status: "Completed", TeamID: FixtureTeamEngineering,
			StartDate: "2024-01-15", StartTime: "13:00", EndDate: "2024-01-15", EndTime: "15:00"},
		{ID: "5", Name: "Project 5", Status: "Active", TeamID: FixtureTeamDesign,
			StartDate: "2024-01-16", StartTime: "13:00", EndDate: "2024-01-16", EndTime: "17:00"},
		{ID: "6", Name: "Project 6", Status: "Cancelled", TeamID: FixtureTeamDesign,
			StartDate: "2024-01-17", StartTime: "10:00", EndDate: "2024-01-17", EndTime: "11:00", NextTaskID: next("4")},
		{ID: "7", Name: "Project 7", Status: "Active", TeamID: FixtureTeamDesign,
			StartDate: "2024-01-18", StartTime: "09:00", EndDate: "2024-01-18", EndTime: "10:00", NextTaskID: next("7")},
	}
}

// SeedFixtures inserts the sample teams and tasks into an empty database. Once
// any team or task exists the dataset is left alone, so fixture rows the user
// deleted stay deleted across restarts.
func SeedFixtures(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var teams, tasks int64
		if err := tx.Model(&models.Team{}).Count(&teams).Error; err != nil {
			return fmt.Errorf("count teams: %w", err)
		}
		if err := tx.Model(&models.Task{}).Count(&tasks).Error; err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}
		if teams > 0 || tasks > 0 {
			return nil
		}

		fixtureTeams := FixtureTeams()
		if err := tx.Create(&fixtureTeams).Error; err != nil {
			return fmt.Errorf("insert teams: %w", err)
		}
		fixtureTasks := FixtureTasks()
		if err := tx.Create(&fixtureTasks).Error; err != nil {
			return fmt.Errorf("insert tasks: %w", err)
		}
		return nil
	})
}
