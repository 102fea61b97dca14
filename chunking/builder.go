package chunking

import (
	"lexai-backend/models"
)

// Builder turns a decision's text into ordered chunks
type Builder struct {
	chunker *SentenceChunker
}

// NewBuilder creates a builder around the given chunker
func NewBuilder(chunker *SentenceChunker) *Builder {
	if chunker == nil {
		chunker = NewSentenceChunker()
	}
	return &Builder{chunker: chunker}
}

// Build extracts metadata once, splits sections, and chunks each section.
// chunk_index restarts at 0 in every section.
func (b *Builder) Build(text string) (models.CaseMetadata, []models.Chunk) {
	meta := ExtractMetadata(text)

	var chunks []models.Chunk
	for _, section := range SplitSections(text) {
		for i, window := range b.chunker.Chunk(section.Text) {
			chunks = append(chunks, models.Chunk{
				CaseNo:     meta.CaseNo,
				Division:   meta.Division,
				Title:      meta.Title,
				Section:    section.Name,
				ChunkIndex: i,
				Text:       window,
			})
		}
	}
	return meta, chunks
}
