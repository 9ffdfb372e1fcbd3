package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pulseworks/pulseboard/internal/models"
)

type sqliteBoardRepo struct {
	db *sql.DB
}

const cardColumns = "id, title, description, status, position, created_by, created_at, updated_at"

func scanCard(row interface{ Scan(...any) error }) (*models.BoardCard, error) {
	card := &models.BoardCard{}
	var description, createdBy sql.NullString
	err := row.Scan(
		&card.ID, &card.Title, &description, &card.Status, &card.Position,
		&createdBy, &card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	card.Description = description.String
	card.CreatedBy = createdBy.String
	return card, nil
}

// Create appends the card at the bottom of its status column. The MAX+1
// lookup and insert share a transaction so two creates cannot land on the
// same position.
func (r *sqliteBoardRepo) Create(ctx context.Context, card *models.BoardCard) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create card: %w", err)
	}
	defer tx.Rollback()

	var last int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) FROM board_cards WHERE status = ?",
		card.Status).Scan(&last)
	if err != nil {
		return fmt.Errorf("last position: %w", err)
	}
	card.Position = last + 1

	_, err = tx.ExecContext(ctx, `
		INSERT INTO board_cards (id, title, description, status, position, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID, card.Title, nullString(card.Description), card.Status,
		card.Position, nullString(card.CreatedBy),
		card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return tx.Commit()
}

func (r *sqliteBoardRepo) GetByID(ctx context.Context, id string) (*models.BoardCard, error) {
	card, err := scanCard(r.db.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM board_cards WHERE id = ?", id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card by id: %w", err)
	}
	return card, nil
}

func (r *sqliteBoardRepo) Update(ctx context.Context, card *models.BoardCard) error {
	query := `
		UPDATE board_cards SET title = ?, description = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		card.Title, nullString(card.Description), card.UpdatedAt,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("card not found: %s", card.ID)
	}
	return nil
}

func (r *sqliteBoardRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM board_cards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("card not found: %s", id)
	}
	return nil
}

func (r *sqliteBoardRepo) List(ctx context.Context) ([]*models.BoardCard, error) {
	query := "SELECT " + cardColumns + " FROM board_cards ORDER BY status, position, created_at"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.BoardCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// Move places the card at position within status. Siblings in the target
// column at or below the slot shift down by one, then the card takes the
// slot. Read-shift-write runs inside one transaction so concurrent moves
// on the same column cannot produce duplicate positions.
func (r *sqliteBoardRepo) Move(ctx context.Context, id string, status models.CardStatus, position int) (*models.BoardCard, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin move card: %w", err)
	}
	defer tx.Rollback()

	card, err := scanCard(tx.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM board_cards WHERE id = ?", id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card for move: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE board_cards SET position = position + 1 WHERE status = ? AND position >= ? AND id != ?",
		status, position, id)
	if err != nil {
		return nil, fmt.Errorf("shift siblings: %w", err)
	}

	card.Status = status
	card.Position = position
	_, err = tx.ExecContext(ctx,
		"UPDATE board_cards SET status = ?, position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, position, id)
	if err != nil {
		return nil, fmt.Errorf("place card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit move: %w", err)
	}
	return card, nil
}
