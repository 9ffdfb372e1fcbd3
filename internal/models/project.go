package models

import (
	"time"
)

// Project represents a tracked project owned by a team lead.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewProject creates a new Project with initialized timestamps.
func NewProject(name, description, createdBy string, startDate time.Time) *Project {
	now := time.Now()
	return &Project{
		Name:        name,
		Description: description,
		StartDate:   startDate,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProjectMember represents a user's membership in a project.
// Membership grants read access only; edit rights belong to the creator.
type ProjectMember struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
}
