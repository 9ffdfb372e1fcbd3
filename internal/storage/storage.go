// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"

	"github.com/pulseworks/pulseboard/internal/models"
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// EnsureSuperuser creates a default superuser if no users exist.
	EnsureSuperuser() error

	// Repository accessors
	Users() UserRepository
	Projects() ProjectRepository
	Tasks() TaskRepository
	Board() BoardRepository
}

// UserRepository defines operations for user management.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectRepository defines operations for project management.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Project, error)
	ListByCreator(ctx context.Context, userID string) ([]*models.Project, error)
	ListForMember(ctx context.Context, userID string) ([]*models.Project, error)
	SetMembers(ctx context.Context, projectID string, userIDs []string) error
	GetMembers(ctx context.Context, projectID string) ([]*models.ProjectMember, error)
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
	// TotalCost sums the cost of the project's tasks at query time.
	TotalCost(ctx context.Context, projectID string) (float64, error)
}

// TaskRepository defines operations for project-scoped tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, projectID, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, projectID, id string) error
	ListByProject(ctx context.Context, projectID string) ([]*models.Task, error)
	ListAssigned(ctx context.Context, projectID, userID string) ([]*models.Task, error)
}

// BoardRepository defines operations for the shared Kanban board.
type BoardRepository interface {
	// Create appends the card at the bottom of its status column.
	Create(ctx context.Context, card *models.BoardCard) error
	GetByID(ctx context.Context, id string) (*models.BoardCard, error)
	Update(ctx context.Context, card *models.BoardCard) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.BoardCard, error)
	// Move places the card at position within status, shifting siblings at
	// or below the target down by one. Runs in a single transaction so
	// concurrent moves cannot produce duplicate positions.
	Move(ctx context.Context, id string, status models.CardStatus, position int) (*models.BoardCard, error)
}
