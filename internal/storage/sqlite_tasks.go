package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulseworks/pulseboard/internal/models"
)

type sqliteTaskRepo struct {
	db *sql.DB
}

const taskColumns = "id, project_id, title, description, time_taken, cost, assigned_to, completed, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	task := &models.Task{}
	var description, assignedTo sql.NullString
	err := row.Scan(
		&task.ID, &task.ProjectID, &task.Title, &description,
		&task.TimeTaken, &task.Cost, &assignedTo, &task.Completed,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Description = description.String
	if assignedTo.Valid {
		s := assignedTo.String
		task.AssignedTo = &s
	}
	return task, nil
}

func (r *sqliteTaskRepo) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, project_id, title, description, time_taken, cost, assigned_to, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.ProjectID, task.Title, nullString(task.Description),
		task.TimeTaken, task.Cost, task.AssignedTo, task.Completed,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *sqliteTaskRepo) GetByID(ctx context.Context, projectID, id string) (*models.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND project_id = ?", id, projectID))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return task, nil
}

func (r *sqliteTaskRepo) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET title = ?, description = ?, time_taken = ?, cost = ?,
			assigned_to = ?, completed = ?, updated_at = ?
		WHERE id = ? AND project_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		task.Title, nullString(task.Description), task.TimeTaken, task.Cost,
		task.AssignedTo, task.Completed, task.UpdatedAt,
		task.ID, task.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %s", task.ID)
	}
	return nil
}

func (r *sqliteTaskRepo) Delete(ctx context.Context, projectID, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND project_id = ?", id, projectID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	return nil
}

func (r *sqliteTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	return r.list(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? ORDER BY created_at",
		projectID)
}

func (r *sqliteTaskRepo) ListAssigned(ctx context.Context, projectID, userID string) ([]*models.Task, error) {
	return r.list(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? AND assigned_to = ? ORDER BY created_at",
		projectID, userID)
}

func (r *sqliteTaskRepo) list(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
