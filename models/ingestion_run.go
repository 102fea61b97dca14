package models

import (
	"time"

	"github.com/google/uuid"
)

// RunKind distinguishes chunk ingestion runs from embedding backfills
type RunKind string

const (
	RunKindIngest RunKind = "ingest"
	RunKindEmbed  RunKind = "embed"
)

// RunStatus represents the status of an ingestion run
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// RunStats holds the counters a run accumulates
type RunStats struct {
	Processed         int `json:"processed"`
	Skipped           int `json:"skipped"`
	Malformed         int `json:"malformed"`
	Failed            int `json:"failed"`
	ChunksInserted    int `json:"chunks_inserted"`
	EmbeddingsUpdated int `json:"embeddings_updated"`
	EmbeddingsFailed  int `json:"embeddings_failed"`
}

// IngestionRun tracks a background ingestion or embedding backfill
type IngestionRun struct {
	ID           uuid.UUID  `json:"id"`
	Kind         RunKind    `json:"kind"`
	Status       RunStatus  `json:"status"`
	Stats        RunStats   `json:"stats"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// IsActive reports whether the run has not reached a terminal status
func (r *IngestionRun) IsActive() bool {
	return r.Status == RunStatusPending || r.Status == RunStatusInProgress
}
