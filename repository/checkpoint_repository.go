package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CheckpointRepository persists named ingestion cursors in Postgres
type CheckpointRepository struct {
	db   DB
	name string
}

// NewCheckpointRepository creates a checkpoint repository for the named cursor
func NewCheckpointRepository(db DB, name string) *CheckpointRepository {
	return &CheckpointRepository{db: db, name: name}
}

// Load returns the last processed URL, or nil when no checkpoint exists
func (r *CheckpointRepository) Load(ctx context.Context) (*string, error) {
	query := `SELECT last_processed_url FROM ingestion_checkpoints WHERE name = $1`

	var url *string
	err := r.db.QueryRow(ctx, query, r.name).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint %s: %w", r.name, err)
	}
	return url, nil
}

// Save overwrites the checkpoint with url
func (r *CheckpointRepository) Save(ctx context.Context, url string) error {
	query := `
		INSERT INTO ingestion_checkpoints (name, last_processed_url, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET
			last_processed_url = EXCLUDED.last_processed_url,
			updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, r.name, url); err != nil {
		return fmt.Errorf("failed to save checkpoint %s: %w", r.name, err)
	}
	return nil
}

// Clear removes the checkpoint so the next run starts from the beginning
func (r *CheckpointRepository) Clear(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM ingestion_checkpoints WHERE name = $1`, r.name); err != nil {
		return fmt.Errorf("failed to clear checkpoint %s: %w", r.name, err)
	}
	return nil
}
