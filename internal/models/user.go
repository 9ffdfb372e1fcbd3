package models

import (
	"time"
)

// Role represents a user's permission level.
type Role string

const (
	RoleTeamLead Role = "team_lead"
	RoleStaff    Role = "staff"
)

// User represents a dashboard user. Role drives project/task permissions;
// Superuser is an independent flag that grants full access regardless of role.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         Role      `json:"role"`
	Superuser    bool      `json:"superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a new User with initialized timestamps.
func NewUser(username, email string, role Role) *User {
	now := time.Now()
	return &User{
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTeamLead returns true if the user has the team lead role.
func (u *User) IsTeamLead() bool {
	return u.Role == RoleTeamLead
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// ParseRole converts a string to Role. Unknown values default to staff.
func ParseRole(s string) Role {
	switch s {
	case "team_lead":
		return RoleTeamLead
	default:
		return RoleStaff
	}
}
