package models

import (
	"time"
)

// Task represents a unit of work within a project. TimeTaken is in hours,
// Cost in dollars. A project's total cost is always derived from its tasks.
type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TimeTaken   float64   `json:"time_taken"`
	Cost        float64   `json:"cost"`
	AssignedTo  *string   `json:"assigned_to,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask creates a new Task with initialized timestamps.
func NewTask(projectID, title, description string) *Task {
	now := time.Now()
	return &Task{
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AssignedUserID returns the assignee ID or "" when unassigned.
func (t *Task) AssignedUserID() string {
	if t.AssignedTo == nil {
		return ""
	}
	return *t.AssignedTo
}
