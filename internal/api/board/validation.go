// Package board provides the shared Kanban board API endpoints.
package board

import (
	"strings"
)

// ValidationError contains validation error details.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateTitle validates a card title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(title) > 200 {
		return &ValidationError{Field: "title", Message: "title must be at most 200 characters"}
	}
	return nil
}
