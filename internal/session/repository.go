package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when an autosave record does not exist. Callers
// use errors.Is() instead of string matching.
var ErrNotFound = errors.New("autosave not found")

type Repository interface {
	InsertAutosave(ctx context.Context, rec *AutosaveRecord) error
	GetAutosave(ctx context.Context, id string) (*AutosaveRecord, error)
	ListAutosaves(ctx context.Context, projectID string, limit int) ([]*AutosaveRecord, error)
	DeleteAutosave(ctx context.Context, id string) error
	DeleteAutosaves(ctx context.Context, projectID string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) InsertAutosave(ctx context.Context, rec *AutosaveRecord) error {
	state, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("marshal editor state: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO autosaves (id, project_id, created_at, state)
		VALUES (?, ?, ?, ?)
	`, rec.ID, rec.ProjectID, rec.CreatedAt.Format(time.RFC3339Nano), string(state))
	return err
}

func (r *SQLiteRepository) GetAutosave(ctx context.Context, id string) (*AutosaveRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, created_at, state
		FROM autosaves WHERE id = ?
	`, id)
	return r.scanAutosave(row)
}

func (r *SQLiteRepository) scanAutosave(row *sql.Row) (*AutosaveRecord, error) {
	var rec AutosaveRecord
	var createdAt, state string

	err := row.Scan(&rec.ID, &rec.ProjectID, &createdAt, &state)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if err := json.Unmarshal([]byte(state), &rec.State); err != nil {
		return nil, fmt.Errorf("decode editor state: %w", err)
	}
	return &rec, nil
}

func (r *SQLiteRepository) ListAutosaves(ctx context.Context, projectID string, limit int) ([]*AutosaveRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, created_at, state
		FROM autosaves WHERE project_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*AutosaveRecord
	for rows.Next() {
		var rec AutosaveRecord
		var createdAt, state string

		if err := rows.Scan(&rec.ID, &rec.ProjectID, &createdAt, &state); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if err := json.Unmarshal([]byte(state), &rec.State); err != nil {
			return nil, fmt.Errorf("decode editor state: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) DeleteAutosave(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM autosaves WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) DeleteAutosaves(ctx context.Context, projectID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM autosaves WHERE project_id = ?", projectID)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
