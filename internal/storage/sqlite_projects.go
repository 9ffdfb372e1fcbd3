package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulseworks/pulseboard/internal/models"
)

type sqliteProjectRepo struct {
	db *sql.DB
}

const projectColumns = "id, name, description, start_date, end_date, created_by, created_at, updated_at"

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	project := &models.Project{}
	var description sql.NullString
	var endDate sql.NullTime
	err := row.Scan(
		&project.ID, &project.Name, &description, &project.StartDate, &endDate,
		&project.CreatedBy, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	project.Description = description.String
	if endDate.Valid {
		t := endDate.Time
		project.EndDate = &t
	}
	return project, nil
}

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (id, name, description, start_date, end_date, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		project.ID, project.Name, nullString(project.Description),
		project.StartDate, project.EndDate, project.CreatedBy,
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	project, err := scanProject(r.db.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return project, nil
}

func (r *sqliteProjectRepo) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects SET name = ?, description = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		project.Name, nullString(project.Description), project.StartDate,
		project.EndDate, project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project not found: %s", project.ID)
	}
	return nil
}

func (r *sqliteProjectRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

func (r *sqliteProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	return r.list(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY start_date, name")
}

func (r *sqliteProjectRepo) ListByCreator(ctx context.Context, userID string) ([]*models.Project, error) {
	return r.list(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE created_by = ? ORDER BY start_date, name",
		userID)
}

func (r *sqliteProjectRepo) ListForMember(ctx context.Context, userID string) ([]*models.Project, error) {
	query := `
		SELECT p.id, p.name, p.description, p.start_date, p.end_date, p.created_by, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members pm ON pm.project_id = p.id
		WHERE pm.user_id = ?
		ORDER BY p.start_date, p.name
	`
	return r.list(ctx, query, userID)
}

func (r *sqliteProjectRepo) list(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// SetMembers replaces the project's member set in one transaction.
func (r *sqliteProjectRepo) SetMembers(ctx context.Context, projectID string, userIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set members: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM project_members WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO project_members (project_id, user_id) VALUES (?, ?)",
			projectID, userID); err != nil {
			return fmt.Errorf("add member %s: %w", userID, err)
		}
	}
	return tx.Commit()
}

func (r *sqliteProjectRepo) GetMembers(ctx context.Context, projectID string) ([]*models.ProjectMember, error) {
	query := `
		SELECT pm.project_id, pm.user_id, u.username, u.full_name
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = ?
		ORDER BY u.username
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project members: %w", err)
	}
	defer rows.Close()

	var members []*models.ProjectMember
	for rows.Next() {
		m := &models.ProjectMember{}
		var fullName sql.NullString
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Username, &fullName); err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		m.FullName = fullName.String
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *sqliteProjectRepo) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM project_members WHERE project_id = ? AND user_id = ?",
		projectID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return n > 0, nil
}

// TotalCost derives the project cost from its tasks. Never stored.
func (r *sqliteProjectRepo) TotalCost(ctx context.Context, projectID string) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(cost), 0) FROM tasks WHERE project_id = ?",
		projectID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total project cost: %w", err)
	}
	return total, nil
}
