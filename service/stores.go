package service

import (
	"context"

	"lexai-backend/models"

	"github.com/google/uuid"
)

// ChunkWriter persists decisions and their chunks
type ChunkWriter interface {
	UpsertCaseMetadata(ctx context.Context, caseNo string, meta models.CaseMetadata) (int64, error)
	InsertChunkIfAbsent(ctx context.Context, decisionID int64, chunk models.Chunk) (*int64, error)
}

// EmbeddingBacklog exposes chunks waiting for a vector
type EmbeddingBacklog interface {
	FetchChunksMissingEmbedding(ctx context.Context, limit int) ([]models.StoredChunk, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32, tokenCount int) error
}

// NeighborSearcher answers nearest-neighbour queries
type NeighborSearcher interface {
	NearestNeighbors(ctx context.Context, embedding []float32, k int, previewChars int) ([]models.ChunkNeighbor, error)
}

// ChunkStore is the full store contract, satisfied by repository.DecisionChunkRepository
type ChunkStore interface {
	ChunkWriter
	EmbeddingBacklog
	NeighborSearcher
}

// CheckpointStore holds the ingestion cursor
type CheckpointStore interface {
	Load(ctx context.Context) (*string, error)
	Save(ctx context.Context, url string) error
}

// RunStore persists ingestion runs, satisfied by repository.IngestionRunRepository
type RunStore interface {
	Create(ctx context.Context, run *models.IngestionRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionRun, error)
	GetActiveByKind(ctx context.Context, kind models.RunKind) (*models.IngestionRun, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RunStatus) error
	UpdateStats(ctx context.Context, id uuid.UUID, stats models.RunStats) error
	Complete(ctx context.Context, id uuid.UUID, stats models.RunStats) error
	Fail(ctx context.Context, id uuid.UUID, errorMessage string, stats models.RunStats) error
}

// ProgressFunc receives a snapshot of a run's counters
type ProgressFunc func(models.RunStats)
