package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lexai-backend/logger"
	"lexai-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultProgressInterval = 2 * time.Second

// Runner executes one kind of run, reporting progress as it goes
type Runner func(ctx context.Context, progress ProgressFunc) (models.RunStats, error)

// RunService starts background ingestion and embedding runs and tracks them
type RunService struct {
	runs             RunStore
	runners          map[models.RunKind]Runner
	progressInterval time.Duration
	logger           logger.Logger

	mu     sync.Mutex
	active map[models.RunKind]uuid.UUID
}

// RunServiceOption is a functional option for RunService
type RunServiceOption func(*RunService)

// RunWithRunStore sets the run repository
func RunWithRunStore(runs RunStore) RunServiceOption {
	return func(s *RunService) {
		s.runs = runs
	}
}

// RunWithRunner registers the runner for a kind
func RunWithRunner(kind models.RunKind, runner Runner) RunServiceOption {
	return func(s *RunService) {
		s.runners[kind] = runner
	}
}

// RunWithProgressInterval sets the minimum gap between persisted stats updates
func RunWithProgressInterval(d time.Duration) RunServiceOption {
	return func(s *RunService) {
		s.progressInterval = d
	}
}

// RunWithLogger sets the logger
func RunWithLogger(l logger.Logger) RunServiceOption {
	return func(s *RunService) {
		s.logger = l
	}
}

// NewRunService creates a new run service
func NewRunService(opts ...RunServiceOption) *RunService {
	s := &RunService{
		runners:          make(map[models.RunKind]Runner),
		progressInterval: defaultProgressInterval,
		active:           make(map[models.RunKind]uuid.UUID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RunService) log(ctx context.Context) logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.FromContext(ctx)
}

// StartRunRequest represents a request to start a run
type StartRunRequest struct {
	Kind models.RunKind
}

// StartRunResult represents the result of starting a run
type StartRunResult struct {
	RunID uuid.UUID
}

// StartRun records a pending run and reserves its kind. It returns
// immediately; the caller executes the run with ProcessRun.
func (s *RunService) StartRun(ctx context.Context, req StartRunRequest) (*StartRunResult, error) {
	if s.runs == nil {
		return nil, errors.New("run repository not set")
	}
	if _, ok := s.runners[req.Kind]; !ok {
		return nil, ErrUnknownRunKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.active[req.Kind]; busy {
		return nil, ErrRunInProgress
	}

	existing, err := s.runs.GetActiveByKind(ctx, req.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to check active runs: %w", err)
	}
	if existing != nil {
		return nil, ErrRunInProgress
	}

	run := &models.IngestionRun{
		Kind:   req.Kind,
		Status: models.RunStatusPending,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.active[req.Kind] = run.ID
	return &StartRunResult{RunID: run.ID}, nil
}

// ProcessRun executes a started run and records its outcome.
// This runs in a goroutine and can take hours for a full dataset.
func (s *RunService) ProcessRun(ctx context.Context, runID uuid.UUID, kind models.RunKind) error {
	defer s.release(kind, runID)

	if s.runs == nil {
		return errors.New("run repository not set")
	}
	runner, ok := s.runners[kind]
	if !ok {
		return ErrUnknownRunKind
	}

	log := s.log(ctx).With("run_id", runID, "kind", kind)

	if err := s.runs.UpdateStatus(ctx, runID, models.RunStatusInProgress); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	log.Info("Run started")

	var last time.Time
	progress := func(stats models.RunStats) {
		if time.Since(last) < s.progressInterval {
			return
		}
		last = time.Now()
		if err := s.runs.UpdateStats(ctx, runID, stats); err != nil {
			log.Warn("Failed to record run progress", "error", err)
		}
	}

	stats, runErr := runner(logger.ContextWithLogger(ctx, log), progress)
	if runErr != nil {
		log.Error("Run failed", "error", runErr)
		if err := s.runs.Fail(ctx, runID, runErr.Error(), stats); err != nil {
			log.Error("Failed to mark run failed", "error", err)
		}
		return runErr
	}

	if err := s.runs.Complete(ctx, runID, stats); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	log.Info("Run completed", "processed", stats.Processed, "chunks_inserted", stats.ChunksInserted,
		"embeddings_updated", stats.EmbeddingsUpdated)
	return nil
}

func (s *RunService) release(kind models.RunKind, runID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[kind] == runID {
		delete(s.active, kind)
	}
}

// GetRun returns a run by id
func (s *RunService) GetRun(ctx context.Context, id uuid.UUID) (*models.IngestionRun, error) {
	if s.runs == nil {
		return nil, errors.New("run repository not set")
	}

	run, err := s.runs.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// RecoverStaleRuns marks runs left pending or in progress by a previous
// process as failed. Call it before accepting new runs.
func (s *RunService) RecoverStaleRuns(ctx context.Context) (int, error) {
	if s.runs == nil {
		return 0, errors.New("run repository not set")
	}

	recovered := 0
	for kind := range s.runners {
		for {
			run, err := s.runs.GetActiveByKind(ctx, kind)
			if err != nil {
				return recovered, fmt.Errorf("failed to find active %s runs: %w", kind, err)
			}
			if run == nil {
				break
			}
			if err := s.runs.Fail(ctx, run.ID, "interrupted by restart", run.Stats); err != nil {
				return recovered, fmt.Errorf("failed to mark run %s failed: %w", run.ID, err)
			}
			s.log(ctx).Warn("Marked stale run as failed", "run_id", run.ID, "kind", kind)
			recovered++
		}
	}
	return recovered, nil
}
