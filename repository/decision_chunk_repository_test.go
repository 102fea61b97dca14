package repository

import (
	"errors"
	"testing"
	"time"

	"lexai-backend/models"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestDecisionChunkRepository_UpsertCaseMetadata(t *testing.T) {
	t.Run("Should upsert with COALESCE and return the decision id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewDecisionChunkRepository(mock)
		meta := models.CaseMetadata{Division: strPtr("THIRD DIVISION"), Title: strPtr("People v. Cruz")}

		mock.ExpectQuery(`(?s)INSERT INTO decisions.+ON CONFLICT \(case_no\) DO UPDATE SET\s+division = COALESCE\(EXCLUDED\.division, decisions\.division\)`).
			WithArgs("G.R. No. 1", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(42)))

		id, err := repo.UpsertCaseMetadata(t.Context(), "G.R. No. 1", meta)

		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should wrap database errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewDecisionChunkRepository(mock)

		mock.ExpectQuery(`INSERT INTO decisions`).
			WithArgs("G.R. No. 1", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))

		_, err = repo.UpsertCaseMetadata(t.Context(), "G.R. No. 1", models.CaseMetadata{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestDecisionChunkRepository_InsertChunkIfAbsent(t *testing.T) {
	chunk := models.Chunk{
		CaseNo:     strPtr("G.R. No. 1"),
		Section:    models.SectionFacts,
		ChunkIndex: 0,
		Text:       "FACTS:\n\nThe petitioner filed a complaint.",
	}

	t.Run("Should return the new id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewDecisionChunkRepository(mock)

		mock.ExpectQuery(`(?s)INSERT INTO decision_chunks.+ON CONFLICT \(case_no, section, chunk_index\) DO NOTHING\s+RETURNING id`).
			WithArgs(int64(42), "G.R. No. 1", models.SectionFacts, 0, chunk.Text, pgxmock.AnyArg()).
			WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(7)))

		id, err := repo.InsertChunkIfAbsent(t.Context(), 42, chunk)

		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, int64(7), *id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should return nil when the chunk already exists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewDecisionChunkRepository(mock)

		mock.ExpectQuery(`INSERT INTO decision_chunks`).
			WithArgs(int64(42), "G.R. No. 1", models.SectionFacts, 0, chunk.Text, pgxmock.AnyArg()).
			WillReturnRows(mock.NewRows([]string{"id"}))

		id, err := repo.InsertChunkIfAbsent(t.Context(), 42, chunk)

		require.NoError(t, err)
		assert.Nil(t, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should refuse a chunk without a case number", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewDecisionChunkRepository(mock)

		_, err = repo.InsertChunkIfAbsent(t.Context(), 42, models.Chunk{Section: models.SectionFacts})

		assert.ErrorIs(t, err, ErrMissingCaseNo)
	})
}

func TestDecisionChunkRepository_FetchChunksMissingEmbedding(t *testing.T) {
	t.Run("Should scan every chunk lacking an embedding", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewDecisionChunkRepository(mock)
		now := time.Now()

		rows := mock.NewRows([]string{"id", "decision_id", "case_no", "section", "chunk_index", "text", "token_count", "created_at", "updated_at"}).
			AddRow(int64(1), int64(10), "G.R. No. 1", models.SectionFacts, 0, "first", (*int)(nil), now, now).
			AddRow(int64(2), int64(10), "G.R. No. 1", models.SectionRuling, 0, "second", intPtr(12), now, now)
		mock.ExpectQuery(`(?s)SELECT.+FROM decision_chunks\s+WHERE embedding IS NULL\s+ORDER BY id\s+LIMIT \$1`).
			WithArgs(pgxmock.AnyArg()).
			WillReturnRows(rows)

		chunks, err := repo.FetchChunksMissingEmbedding(t.Context(), 0)

		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, int64(1), chunks[0].ID)
		assert.Nil(t, chunks[0].TokenCount)
		assert.Equal(t, models.SectionRuling, chunks[1].Section)
		require.NotNil(t, chunks[1].TokenCount)
		assert.Equal(t, 12, *chunks[1].TokenCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDecisionChunkRepository_UpdateEmbedding(t *testing.T) {
	t.Run("Should store the vector and token count", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewDecisionChunkRepository(mock)

		mock.ExpectExec(`UPDATE decision_chunks SET\s+embedding = \$1,\s+token_count = \$2\s+WHERE id = \$3`).
			WithArgs(pgxmock.AnyArg(), 12, int64(5)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.UpdateEmbedding(t.Context(), 5, []float32{0.6, 0.8}, 12)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should report a missing chunk", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewDecisionChunkRepository(mock)

		mock.ExpectExec(`UPDATE decision_chunks`).
			WithArgs(pgxmock.AnyArg(), 12, int64(5)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = repo.UpdateEmbedding(t.Context(), 5, []float32{1}, 12)

		assert.ErrorIs(t, err, ErrChunkNotFound)
	})
}

func TestDecisionChunkRepository_NearestNeighbors(t *testing.T) {
	t.Run("Should order by cosine distance and skip unembedded rows", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewDecisionChunkRepository(mock)

		rows := mock.NewRows([]string{"id", "case_no", "section", "chunk_index", "preview", "distance"}).
			AddRow(int64(3), "G.R. No. 1", models.SectionRuling, 0, "We find", 0.1).
			AddRow(int64(1), "G.R. No. 2", models.SectionFacts, 2, "The petitioner", 0.4)
		mock.ExpectQuery(`substring\(text for \$3\) AS preview,\s+embedding <=> \$1 AS distance\s+FROM decision_chunks\s+WHERE embedding IS NOT NULL\s+ORDER BY embedding <=> \$1 ASC\s+LIMIT \$2`).
			WithArgs(pgxmock.AnyArg(), 5, 300).
			WillReturnRows(rows)

		neighbors, err := repo.NearestNeighbors(t.Context(), []float32{1, 0}, 5, 300)

		require.NoError(t, err)
		require.Len(t, neighbors, 2)
		assert.Equal(t, int64(3), neighbors[0].ID)
		assert.InDelta(t, 0.1, neighbors[0].Distance, 1e-9)
		assert.Equal(t, 2, neighbors[1].ChunkIndex)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should return no neighbors for an empty store", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewDecisionChunkRepository(mock)

		mock.ExpectQuery(`FROM decision_chunks`).
			WithArgs(pgxmock.AnyArg(), 5, 300).
			WillReturnRows(mock.NewRows([]string{"id", "case_no", "section", "chunk_index", "preview", "distance"}))

		neighbors, err := repo.NearestNeighbors(t.Context(), []float32{1, 0}, 5, 300)

		require.NoError(t, err)
		assert.Empty(t, neighbors)
	})
}
