// Package projects provides project and task API endpoints.
package projects

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ValidationError contains validation error details.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateName validates a project name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) > 200 {
		return &ValidationError{Field: "name", Message: "name must be at most 200 characters"}
	}
	return nil
}

// ValidateTitle validates a task title.
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

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: field + " must be a YYYY-MM-DD date"}
	}
	return t, nil
}

// ValidateDateRange checks that the end date does not precede the start.
func ValidateDateRange(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return &ValidationError{Field: "end_date", Message: "end_date must not be before start_date"}
	}
	return nil
}

// ValidateNonNegative checks a numeric task field.
func ValidateNonNegative(field string, v float64) error {
	if v < 0 {
		return &ValidationError{Field: field, Message: field + " must not be negative"}
	}
	return nil
}
