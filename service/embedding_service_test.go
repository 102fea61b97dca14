package service

import (
	"context"
	"errors"
	"testing"

	"lexai-backend/embedding"
	"lexai-backend/logger"
	"lexai-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChunks(t *testing.T, store *fakeChunkStore, texts ...string) []int64 {
	t.Helper()
	caseNo := "G.R. No. 1"
	decisionID, err := store.UpsertCaseMetadata(t.Context(), caseNo, models.CaseMetadata{})
	require.NoError(t, err)
	ids := make([]int64, 0, len(texts))
	for i, text := range texts {
		id, err := store.InsertChunkIfAbsent(t.Context(), decisionID, models.Chunk{
			CaseNo:     &caseNo,
			Section:    models.SectionRuling,
			ChunkIndex: i,
			Text:       text,
		})
		require.NoError(t, err)
		ids = append(ids, *id)
	}
	return ids
}

func TestEmbeddingService_Backfill(t *testing.T) {
	t.Run("Should embed every chunk as a passage and record token counts", func(t *testing.T) {
		store := newFakeChunkStore()
		ids := seedChunks(t, store, "The appeal is granted.", "So ordered.")
		gateway := newFakeGateway(4)
		svc := NewEmbeddingService(
			EmbeddingWithBacklog(store),
			EmbeddingWithGateway(gateway),
			EmbeddingWithLogger(logger.NewForTests()),
		)

		stats, err := svc.Backfill(t.Context(), nil)

		require.NoError(t, err)
		assert.Equal(t, 2, stats.EmbeddingsUpdated)
		assert.Equal(t, 0, stats.EmbeddingsFailed)
		assert.Len(t, gateway.calls[embedding.RolePassage], 2)
		assert.Empty(t, gateway.calls[embedding.RoleQuery])
		assert.Equal(t, 4, store.tokens[ids[0]])
		assert.Equal(t, 2, store.tokens[ids[1]])
	})

	t.Run("Should continue past a chunk that fails", func(t *testing.T) {
		store := newFakeChunkStore()
		ids := seedChunks(t, store, "first chunk.", "second chunk.", "third chunk.")
		gateway := newFakeGateway(4)
		gateway.fail["second chunk."] = errors.New("quota exceeded")
		svc := NewEmbeddingService(
			EmbeddingWithBacklog(store),
			EmbeddingWithGateway(gateway),
			EmbeddingWithWorkers(3),
			EmbeddingWithLogger(logger.NewForTests()),
		)

		stats, err := svc.Backfill(t.Context(), nil)

		require.NoError(t, err)
		assert.Equal(t, 2, stats.EmbeddingsUpdated)
		assert.Equal(t, 1, stats.EmbeddingsFailed)
		assert.Contains(t, store.embedded, ids[0])
		assert.NotContains(t, store.embedded, ids[1])
		assert.Contains(t, store.embedded, ids[2])

		remaining, err := store.FetchChunksMissingEmbedding(t.Context(), 0)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, ids[1], remaining[0].ID)
	})

	t.Run("Should count a failed store update as a failed chunk", func(t *testing.T) {
		store := newFakeChunkStore()
		ids := seedChunks(t, store, "only chunk.")
		store.failUpdate[ids[0]] = errStoreDown
		svc := NewEmbeddingService(
			EmbeddingWithBacklog(store),
			EmbeddingWithGateway(newFakeGateway(4)),
			EmbeddingWithLogger(logger.NewForTests()),
		)

		stats, err := svc.Backfill(t.Context(), nil)

		require.NoError(t, err)
		assert.Equal(t, 1, stats.EmbeddingsFailed)
	})

	t.Run("Should honour the sweep limit", func(t *testing.T) {
		store := newFakeChunkStore()
		seedChunks(t, store, "a.", "b.", "c.")
		svc := NewEmbeddingService(
			EmbeddingWithBacklog(store),
			EmbeddingWithGateway(newFakeGateway(4)),
			EmbeddingWithLimit(2),
			EmbeddingWithLogger(logger.NewForTests()),
		)

		stats, err := svc.Backfill(t.Context(), nil)

		require.NoError(t, err)
		assert.Equal(t, 2, stats.EmbeddingsUpdated)
	})

	t.Run("Should do nothing when every chunk is embedded", func(t *testing.T) {
		store := newFakeChunkStore()
		var calls int
		svc := NewEmbeddingService(
			EmbeddingWithBacklog(store),
			EmbeddingWithGateway(newFakeGateway(4)),
			EmbeddingWithLogger(logger.NewForTests()),
		)

		stats, err := svc.Backfill(t.Context(), func(models.RunStats) { calls++ })

		require.NoError(t, err)
		assert.Equal(t, models.RunStats{}, stats)
		assert.Zero(t, calls)
	})

	t.Run("Should return the context error when cancelled", func(t *testing.T) {
		store := newFakeChunkStore()
		seedChunks(t, store, "a.", "b.")
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		svc := NewEmbeddingService(
			EmbeddingWithBacklog(store),
			EmbeddingWithGateway(newFakeGateway(4)),
			EmbeddingWithLogger(logger.NewForTests()),
		)

		_, err := svc.Backfill(ctx, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Should stop scheduling chunks once cancelled", func(t *testing.T) {
		store := newFakeChunkStore()
		seedChunks(t, store, "a.", "b.", "c.", "d.", "e.")
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		gateway := &cancelingGateway{fakeGateway: newFakeGateway(4), cancel: cancel}
		svc := NewEmbeddingService(
			EmbeddingWithBacklog(store),
			EmbeddingWithGateway(gateway),
			EmbeddingWithWorkers(1),
			EmbeddingWithLogger(logger.NewForTests()),
		)

		stats, err := svc.Backfill(ctx, nil)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, gateway.calls[embedding.RolePassage], 1)
		assert.Zero(t, stats.EmbeddingsFailed)
	})

	t.Run("Should require a gateway", func(t *testing.T) {
		svc := NewEmbeddingService(EmbeddingWithBacklog(newFakeChunkStore()))
		_, err := svc.Backfill(t.Context(), nil)
		assert.ErrorIs(t, err, ErrGatewayNotSet)
	})
}

// cancelingGateway cancels the sweep on its first call
type cancelingGateway struct {
	*fakeGateway
	cancel context.CancelFunc
}

func (g *cancelingGateway) Encode(ctx context.Context, text string, role embedding.Role) ([]float32, error) {
	g.cancel()
	return g.fakeGateway.Encode(ctx, text, role)
}
