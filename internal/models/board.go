package models

import (
	"time"
)

// CardStatus is a Kanban board column.
type CardStatus string

const (
	StatusBacklog    CardStatus = "backlog"
	StatusTodo       CardStatus = "todo"
	StatusInProgress CardStatus = "inprogress"
	StatusDone       CardStatus = "done"
)

// ParseCardStatus converts a string to a CardStatus.
func ParseCardStatus(s string) (CardStatus, bool) {
	switch CardStatus(s) {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusDone:
		return CardStatus(s), true
	}
	return "", false
}

// BoardCard is a Kanban card. The board is shared: every authenticated
// user sees and can move every card. Position is the card's place within
// its status column; positions in a column are unique, lowest first.
type BoardCard struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      CardStatus `json:"status"`
	Position    int        `json:"position"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewBoardCard creates a card with initialized timestamps.
func NewBoardCard(title, description string, status CardStatus, createdBy string) *BoardCard {
	now := time.Now()
	return &BoardCard{
		Title:       title,
		Description: description,
		Status:      status,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
