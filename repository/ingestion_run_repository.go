package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lexai-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IngestionRunRepository handles database operations for ingestion runs
type IngestionRunRepository struct {
	db DB
}

// NewIngestionRunRepository creates a new ingestion run repository
func NewIngestionRunRepository(db DB) *IngestionRunRepository {
	return &IngestionRunRepository{db: db}
}

const runColumns = `id, kind, status, stats, error_message, created_at, updated_at, completed_at`

// Create creates a new ingestion run
func (r *IngestionRunRepository) Create(ctx context.Context, run *models.IngestionRun) error {
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats: %w", err)
	}

	query := `
		INSERT INTO ingestion_runs (kind, status, stats)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query, run.Kind, run.Status, stats).
		Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)
}

// GetByID retrieves an ingestion run by ID. A missing run yields pgx.ErrNoRows.
func (r *IngestionRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionRun, error) {
	query := `SELECT ` + runColumns + ` FROM ingestion_runs WHERE id = $1`
	return scanRun(r.db.QueryRow(ctx, query, id))
}

// GetActiveByKind returns the latest pending or in-progress run of a kind, or nil
func (r *IngestionRunRepository) GetActiveByKind(ctx context.Context, kind models.RunKind) (*models.IngestionRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM ingestion_runs
		WHERE kind = $1 AND status IN ('pending', 'in_progress')
		ORDER BY created_at DESC
		LIMIT 1`

	run, err := scanRun(r.db.QueryRow(ctx, query, kind))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// UpdateStatus updates the status of an ingestion run
func (r *IngestionRunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RunStatus) error {
	query := `
		UPDATE ingestion_runs SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// UpdateStats records progress counters
func (r *IngestionRunRepository) UpdateStats(ctx context.Context, id uuid.UUID, stats models.RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats: %w", err)
	}

	query := `
		UPDATE ingestion_runs SET
			stats = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err = r.db.Exec(ctx, query, id, data)
	return err
}

// Complete marks an ingestion run as completed
func (r *IngestionRunRepository) Complete(ctx context.Context, id uuid.UUID, stats models.RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats: %w", err)
	}

	now := time.Now()
	query := `
		UPDATE ingestion_runs SET
			status = $2,
			stats = $3,
			completed_at = $4,
			updated_at = $4
		WHERE id = $1`

	_, err = r.db.Exec(ctx, query, id, models.RunStatusCompleted, data, now)
	return err
}

// Fail marks an ingestion run as failed
func (r *IngestionRunRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string, stats models.RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats: %w", err)
	}

	now := time.Now()
	query := `
		UPDATE ingestion_runs SET
			status = $2,
			error_message = $3,
			stats = $4,
			completed_at = $5,
			updated_at = $5
		WHERE id = $1`

	_, err = r.db.Exec(ctx, query, id, models.RunStatusFailed, errorMessage, data, now)
	return err
}

func scanRun(row pgx.Row) (*models.IngestionRun, error) {
	run := &models.IngestionRun{}
	var stats []byte
	if err := row.Scan(
		&run.ID,
		&run.Kind,
		&run.Status,
		&stats,
		&run.ErrorMessage,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.CompletedAt,
	); err != nil {
		return nil, err
	}

	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &run.Stats); err != nil {
			return nil, fmt.Errorf("failed to decode run stats: %w", err)
		}
	}
	return run, nil
}
