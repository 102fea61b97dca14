package service

import (
	"context"
	"sync"

	"lexai-backend/embedding"
	"lexai-backend/logger"
	"lexai-backend/metrics"
	"lexai-backend/models"

	"golang.org/x/sync/errgroup"
)

// EmbeddingService fills in embeddings for chunks that lack one
type EmbeddingService struct {
	backlog EmbeddingBacklog
	gateway embedding.Gateway
	counter embedding.TokenCounter
	workers int
	limit   int
	metrics *metrics.Metrics
	logger  logger.Logger
}

// EmbeddingServiceOption is a functional option for EmbeddingService
type EmbeddingServiceOption func(*EmbeddingService)

// EmbeddingWithBacklog sets the store the sweep reads from and writes to
func EmbeddingWithBacklog(backlog EmbeddingBacklog) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.backlog = backlog
	}
}

// EmbeddingWithGateway sets the embedding gateway
func EmbeddingWithGateway(gateway embedding.Gateway) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.gateway = gateway
	}
}

// EmbeddingWithTokenCounter sets the token counter
func EmbeddingWithTokenCounter(counter embedding.TokenCounter) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.counter = counter
	}
}

// EmbeddingWithWorkers sets how many chunks are embedded concurrently
func EmbeddingWithWorkers(n int) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.workers = n
	}
}

// EmbeddingWithLimit caps the chunks handled by one sweep. 0 means all.
func EmbeddingWithLimit(n int) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.limit = n
	}
}

// EmbeddingWithMetrics sets the metrics sink
func EmbeddingWithMetrics(m *metrics.Metrics) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.metrics = m
	}
}

// EmbeddingWithLogger sets the logger
func EmbeddingWithLogger(l logger.Logger) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.logger = l
	}
}

// NewEmbeddingService creates a new embedding service
func NewEmbeddingService(opts ...EmbeddingServiceOption) *EmbeddingService {
	s := &EmbeddingService{workers: 1}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.counter == nil {
		s.counter = embedding.WordCounter{}
	}
	return s
}

func (s *EmbeddingService) log(ctx context.Context) logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.FromContext(ctx)
}

// Backfill embeds every chunk that has no embedding. Each chunk is updated on
// its own; a chunk that fails stays unembedded for the next sweep and does not
// stop the others.
func (s *EmbeddingService) Backfill(ctx context.Context, progress ProgressFunc) (models.RunStats, error) {
	var stats models.RunStats

	if s.backlog == nil {
		return stats, ErrStoreNotSet
	}
	if s.gateway == nil {
		return stats, ErrGatewayNotSet
	}

	log := s.log(ctx)

	chunks, err := s.backlog.FetchChunksMissingEmbedding(ctx, s.limit)
	if err != nil {
		return stats, err
	}

	remaining := len(chunks)
	s.metrics.SetEmbeddingBacklog(remaining)
	log.Info("Starting embedding sweep", "chunks", remaining, "workers", s.workers)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, chunk := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// cancelled while waiting for a worker slot
			if gctx.Err() != nil {
				return nil
			}
			err := s.embedChunk(gctx, chunk)

			mu.Lock()
			defer mu.Unlock()

			remaining--
			s.metrics.SetEmbeddingBacklog(remaining)
			if err != nil {
				stats.EmbeddingsFailed++
				s.metrics.EmbeddingOutcome(metrics.OutcomeFailed)
				log.Error("Failed to embed chunk",
					"id", chunk.ID,
					"case_no", chunk.CaseNo,
					"section", chunk.Section,
					"chunk_index", chunk.ChunkIndex,
					"error", err,
				)
			} else {
				stats.EmbeddingsUpdated++
				s.metrics.EmbeddingOutcome(metrics.OutcomeUpdated)
				log.Debug("Embedded chunk", "id", chunk.ID)
			}
			if progress != nil {
				progress(stats)
			}
			return nil
		})
	}

	// workers never return errors, so Wait only reports cancellation
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	log.Info("Embedding sweep finished",
		"updated", stats.EmbeddingsUpdated,
		"failed", stats.EmbeddingsFailed,
	)
	return stats, nil
}

func (s *EmbeddingService) embedChunk(ctx context.Context, chunk models.StoredChunk) error {
	vec, err := s.gateway.Encode(ctx, chunk.Text, embedding.RolePassage)
	if err != nil {
		return &EmbeddingError{ChunkID: chunk.ID, Err: err}
	}

	tokens := s.counter.CountTokens(chunk.Text)
	if err := s.backlog.UpdateEmbedding(ctx, chunk.ID, vec, tokens); err != nil {
		return &EmbeddingError{ChunkID: chunk.ID, Err: err}
	}
	return nil
}
