package repository

import (
	"context"
	"errors"
	"fmt"

	"lexai-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

var (
	ErrMissingCaseNo = errors.New("chunk has no case number")
	ErrChunkNotFound = errors.New("chunk not found")
)

// DecisionChunkRepository handles database operations for decisions and their chunks
type DecisionChunkRepository struct {
	db DB
}

// NewDecisionChunkRepository creates a new decision chunk repository
func NewDecisionChunkRepository(db DB) *DecisionChunkRepository {
	return &DecisionChunkRepository{db: db}
}

// UpsertCaseMetadata inserts the decision row for caseNo, or fills in division
// and title on an existing row when the new values are non-null.
func (r *DecisionChunkRepository) UpsertCaseMetadata(ctx context.Context, caseNo string, meta models.CaseMetadata) (int64, error) {
	query := `
		INSERT INTO decisions (case_no, division, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (case_no) DO UPDATE SET
			division = COALESCE(EXCLUDED.division, decisions.division),
			title = COALESCE(EXCLUDED.title, decisions.title)
		RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, query, caseNo, meta.Division, meta.Title).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert decision %s: %w", caseNo, err)
	}
	return id, nil
}

// InsertChunkIfAbsent inserts a chunk and returns its id. A chunk already stored
// under the same (case_no, section, chunk_index) is left alone and nil is returned.
func (r *DecisionChunkRepository) InsertChunkIfAbsent(ctx context.Context, decisionID int64, chunk models.Chunk) (*int64, error) {
	if chunk.CaseNo == nil {
		return nil, ErrMissingCaseNo
	}

	query := `
		INSERT INTO decision_chunks (
			decision_id, case_no, section, chunk_index, text, token_count
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (case_no, section, chunk_index) DO NOTHING
		RETURNING id`

	var id int64
	err := r.db.QueryRow(
		ctx, query,
		decisionID,
		*chunk.CaseNo,
		chunk.Section,
		chunk.ChunkIndex,
		chunk.Text,
		chunk.TokenCount,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert chunk: %w", err)
	}
	return &id, nil
}

// FetchChunksMissingEmbedding returns chunks with no embedding in id order.
// limit <= 0 returns all of them.
func (r *DecisionChunkRepository) FetchChunksMissingEmbedding(ctx context.Context, limit int) ([]models.StoredChunk, error) {
	query := `
		SELECT id, decision_id, case_no, section, chunk_index, text, token_count,
			created_at, updated_at
		FROM decision_chunks
		WHERE embedding IS NULL
		ORDER BY id
		LIMIT $1`

	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := r.db.Query(ctx, query, limitArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks missing embeddings: %w", err)
	}
	defer rows.Close()

	var chunks []models.StoredChunk
	for rows.Next() {
		var c models.StoredChunk
		if err := rows.Scan(
			&c.ID,
			&c.DecisionID,
			&c.CaseNo,
			&c.Section,
			&c.ChunkIndex,
			&c.Text,
			&c.TokenCount,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}

	return chunks, nil
}

// CountMissingEmbeddings returns how many chunks still lack an embedding
func (r *DecisionChunkRepository) CountMissingEmbeddings(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM decision_chunks WHERE embedding IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks missing embeddings: %w", err)
	}
	return n, nil
}

// UpdateEmbedding stores the vector and token count for one chunk
func (r *DecisionChunkRepository) UpdateEmbedding(ctx context.Context, id int64, embedding []float32, tokenCount int) error {
	query := `
		UPDATE decision_chunks SET
			embedding = $1,
			token_count = $2
		WHERE id = $3`

	tag, err := r.db.Exec(ctx, query, pgvector.NewVector(embedding), tokenCount, id)
	if err != nil {
		return fmt.Errorf("failed to update embedding for chunk %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chunk %d: %w", id, ErrChunkNotFound)
	}
	return nil
}

// NearestNeighbors returns the k embedded chunks closest to the query vector by cosine distance
func (r *DecisionChunkRepository) NearestNeighbors(
	ctx context.Context,
	embedding []float32,
	k int,
	previewChars int,
) ([]models.ChunkNeighbor, error) {
	query := `
		SELECT
			id,
			case_no,
			section,
			chunk_index,
			substring(text for $3) AS preview,
			embedding <=> $1 AS distance
		FROM decision_chunks
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1 ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(embedding), k, previewChars)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest chunks: %w", err)
	}
	defer rows.Close()

	var neighbors []models.ChunkNeighbor
	for rows.Next() {
		var n models.ChunkNeighbor
		if err := rows.Scan(
			&n.ID,
			&n.CaseNo,
			&n.Section,
			&n.ChunkIndex,
			&n.Preview,
			&n.Distance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan nearest chunk: %w", err)
		}
		neighbors = append(neighbors, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nearest chunks: %w", err)
	}

	return neighbors, nil
}
