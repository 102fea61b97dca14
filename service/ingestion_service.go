package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"lexai-backend/chunking"
	"lexai-backend/logger"
	"lexai-backend/metrics"
	"lexai-backend/models"
	"lexai-backend/storage"
)

// IngestionService chunks source records and persists them in order,
// advancing a durable checkpoint after each fully written record
type IngestionService struct {
	store       ChunkWriter
	checkpoints CheckpointStore
	builder     *chunking.Builder
	source      storage.Storage
	datasetKey  string
	maxRecord   int
	metrics     *metrics.Metrics
	logger      logger.Logger
}

// IngestionServiceOption is a functional option for IngestionService
type IngestionServiceOption func(*IngestionService)

// WithChunkStore sets the store chunks are written to
func WithChunkStore(store ChunkWriter) IngestionServiceOption {
	return func(s *IngestionService) {
		s.store = store
	}
}

// WithCheckpointStore sets the checkpoint store
func WithCheckpointStore(checkpoints CheckpointStore) IngestionServiceOption {
	return func(s *IngestionService) {
		s.checkpoints = checkpoints
	}
}

// WithBuilder sets the chunk builder
func WithBuilder(builder *chunking.Builder) IngestionServiceOption {
	return func(s *IngestionService) {
		s.builder = builder
	}
}

// WithSource sets where IngestDataset reads the JSONL dataset from
func WithSource(source storage.Storage, key string) IngestionServiceOption {
	return func(s *IngestionService) {
		s.source = source
		s.datasetKey = key
	}
}

// WithMaxRecordSize caps the byte length of one source line
func WithMaxRecordSize(n int) IngestionServiceOption {
	return func(s *IngestionService) {
		s.maxRecord = n
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) IngestionServiceOption {
	return func(s *IngestionService) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) IngestionServiceOption {
	return func(s *IngestionService) {
		s.logger = l
	}
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(opts ...IngestionServiceOption) *IngestionService {
	s := &IngestionService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = chunking.NewBuilder(nil)
	}
	return s
}

func (s *IngestionService) log(ctx context.Context) logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.FromContext(ctx)
}

// IngestDataset opens the configured dataset and ingests it
func (s *IngestionService) IngestDataset(ctx context.Context, progress ProgressFunc) (models.RunStats, error) {
	if s.source == nil {
		return models.RunStats{}, errors.New("dataset source not set")
	}

	rc, err := s.source.Open(ctx, s.datasetKey)
	if err != nil {
		return models.RunStats{}, fmt.Errorf("failed to open dataset %s: %w", s.datasetKey, err)
	}
	defer rc.Close()

	return s.Ingest(ctx, rc, progress)
}

// Ingest streams JSONL records from r. With no checkpoint every record is
// processed. With a checkpoint, records are skipped up to and including the
// one whose URL matches it, and processing resumes with the next.
//
// A malformed line is counted and skipped. A failed write stops the run with
// a *PersistenceError and leaves the checkpoint on the last complete record.
func (s *IngestionService) Ingest(ctx context.Context, r io.Reader, progress ProgressFunc) (models.RunStats, error) {
	var stats models.RunStats

	if s.store == nil {
		return stats, ErrStoreNotSet
	}
	if s.checkpoints == nil {
		return stats, errors.New("checkpoint store not set")
	}

	log := s.log(ctx)

	checkpoint, err := s.checkpoints.Load(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	skipping := checkpoint != nil
	if skipping {
		log.Info("Resuming after checkpoint", "url", *checkpoint)
	} else {
		log.Info("No checkpoint, starting from the beginning")
	}

	report := func() {
		if progress != nil {
			progress(stats)
		}
	}

	reader := NewSourceReader(r, SourceWithMaxRecordSize(s.maxRecord))
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var inputErr *InputError
		if errors.As(err, &inputErr) {
			stats.Malformed++
			s.metrics.RecordOutcome(metrics.OutcomeMalformed)
			log.Warn("Skipping malformed record", "line", inputErr.Line, "error", inputErr.Err)
			report()
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read source: %w", err)
		}

		if skipping {
			stats.Skipped++
			s.metrics.RecordOutcome(metrics.OutcomeSkipped)
			if rec.URL == *checkpoint {
				skipping = false
				log.Info("Reached checkpoint, resuming", "url", rec.URL, "skipped", stats.Skipped)
			}
			continue
		}

		if err := s.processRecord(ctx, rec, &stats); err != nil {
			stats.Failed++
			s.metrics.RecordOutcome(metrics.OutcomeFailed)
			log.Error("Failed to persist record", "url", rec.URL, "error", err)
			report()
			return stats, err
		}

		if err := s.checkpoints.Save(ctx, rec.URL); err != nil {
			return stats, fmt.Errorf("failed to save checkpoint after %s: %w", rec.URL, err)
		}

		stats.Processed++
		s.metrics.RecordOutcome(metrics.OutcomeProcessed)
		log.Info("Processed record", "url", rec.URL, "processed", stats.Processed)
		report()
	}

	if skipping {
		log.Warn("Checkpoint URL not found in source, nothing was processed", "url", *checkpoint)
	}

	log.Info("Ingestion finished",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"malformed", stats.Malformed,
		"chunks_inserted", stats.ChunksInserted,
	)
	return stats, nil
}

// processRecord writes one record's decision row and chunks in index order,
// stopping at the first failure
func (s *IngestionService) processRecord(ctx context.Context, rec models.SourceRecord, stats *models.RunStats) error {
	log := s.log(ctx)

	meta, chunks := s.builder.Build(rec.Text)
	if len(chunks) == 0 {
		log.Warn("Record produced no chunks", "url", rec.URL)
		return nil
	}

	// case_no is the store's natural key; records without one are keyed by URL
	caseKey := rec.URL
	if meta.CaseNo != nil {
		caseKey = *meta.CaseNo
	}
	if meta.Title == nil && rec.Title != "" {
		title := rec.Title
		meta.Title = &title
	}

	decisionID, err := s.store.UpsertCaseMetadata(ctx, caseKey, meta)
	if err != nil {
		return &PersistenceError{URL: rec.URL, CaseNo: caseKey, ChunkIndex: -1, Err: err}
	}

	for _, chunk := range chunks {
		chunk.CaseNo = &caseKey
		chunk.Title = meta.Title

		id, err := s.store.InsertChunkIfAbsent(ctx, decisionID, chunk)
		if err != nil {
			return &PersistenceError{
				URL:        rec.URL,
				CaseNo:     caseKey,
				Section:    chunk.Section,
				ChunkIndex: chunk.ChunkIndex,
				Err:        err,
			}
		}
		if id == nil {
			continue
		}

		stats.ChunksInserted++
		s.metrics.ChunksInserted(1)
		log.Debug("Inserted chunk",
			"id", *id,
			"case_no", caseKey,
			"section", chunk.Section,
			"chunk_index", chunk.ChunkIndex,
		)
	}
	return nil
}
