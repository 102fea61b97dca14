package service

import (
	"errors"
	"fmt"

	"lexai-backend/models"
)

var (
	ErrEmptyQuery    = errors.New("query must not be empty")
	ErrInvalidK      = errors.New("k must be at least 1")
	ErrRunInProgress = errors.New("a run of this kind is already in progress")
	ErrRunNotFound   = errors.New("run not found")
	ErrStoreNotSet   = errors.New("chunk store not set")
	ErrGatewayNotSet = errors.New("embedding gateway not set")

	ErrUnknownRunKind = errors.New("unknown run kind")
)

// InputError marks a source record that could not be decoded
type InputError struct {
	Line int
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("malformed record at line %d: %v", e.Line, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// PersistenceError marks a store write that failed while ingesting a record.
// ChunkIndex is -1 when the failure happened before any chunk was written.
type PersistenceError struct {
	URL        string
	CaseNo     string
	Section    models.SectionName
	ChunkIndex int
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.ChunkIndex < 0 {
		return fmt.Sprintf("failed to persist decision %s (%s): %v", e.CaseNo, e.URL, e.Err)
	}
	return fmt.Sprintf("failed to persist chunk %s/%s/%d (%s): %v", e.CaseNo, e.Section, e.ChunkIndex, e.URL, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// EmbeddingError marks a chunk the sweep could not embed
type EmbeddingError struct {
	ChunkID int64
	Err     error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("failed to embed chunk %d: %v", e.ChunkID, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// ValidationError marks a request rejected before reaching the ranker
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
