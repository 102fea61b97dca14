package models

import (
	"time"
)

// Chunk is a bounded window of a section, ready for persistence
type Chunk struct {
	CaseNo     *string     `json:"case_no,omitempty"`
	Division   *string     `json:"division,omitempty"`
	Title      *string     `json:"title,omitempty"`
	Section    SectionName `json:"section"`
	ChunkIndex int         `json:"chunk_index"`
	Text       string      `json:"text"`
	TokenCount *int        `json:"token_count,omitempty"`
	Embedding  []float32   `json:"embedding,omitempty"`
}

// StoredChunk is a persisted chunk row
type StoredChunk struct {
	ID         int64       `json:"id"`
	DecisionID int64       `json:"decision_id"`
	CaseNo     string      `json:"case_no"`
	Section    SectionName `json:"section"`
	ChunkIndex int         `json:"chunk_index"`
	Text       string      `json:"text"`
	TokenCount *int        `json:"token_count,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// ChunkNeighbor is a stored chunk paired with its cosine distance to a query
type ChunkNeighbor struct {
	ID         int64       `json:"id"`
	CaseNo     string      `json:"case_no"`
	Section    SectionName `json:"section"`
	ChunkIndex int         `json:"chunk_index"`
	Preview    string      `json:"preview"`
	Distance   float64     `json:"distance"`
}

// SearchResult is a ranked chunk returned to search callers
type SearchResult struct {
	ID         int64       `json:"id"`
	CaseNo     string      `json:"case_no"`
	Section    SectionName `json:"section"`
	ChunkIndex int         `json:"chunk_index"`
	Preview    string      `json:"preview"`
	Distance   float64     `json:"distance"`
	Similarity float64     `json:"similarity"`
}
