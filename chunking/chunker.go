package chunking

import (
	"strings"
)

const (
	DefaultMaxTokens        = 350
	DefaultOverlapSentences = 2
	DefaultMinChunkTokens   = 15
)

// CountTokens counts whitespace-delimited tokens
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// SentenceChunker groups sentences into overlapping windows under a token budget
type SentenceChunker struct {
	splitter         SentenceSplitter
	maxTokens        int
	overlapSentences int
	minChunkTokens   int
}

// ChunkerOption configures a SentenceChunker
type ChunkerOption func(*SentenceChunker)

// WithMaxTokens sets the per-chunk token budget
func WithMaxTokens(n int) ChunkerOption {
	return func(c *SentenceChunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOverlapSentences sets how many preceding sentences seed a new chunk
func WithOverlapSentences(n int) ChunkerOption {
	return func(c *SentenceChunker) {
		if n >= 0 {
			c.overlapSentences = n
		}
	}
}

// WithMinChunkTokens sets the size under which a chunk is folded into its predecessor
func WithMinChunkTokens(n int) ChunkerOption {
	return func(c *SentenceChunker) {
		if n >= 0 {
			c.minChunkTokens = n
		}
	}
}

// WithSplitter replaces the sentence splitter
func WithSplitter(s SentenceSplitter) ChunkerOption {
	return func(c *SentenceChunker) {
		if s != nil {
			c.splitter = s
		}
	}
}

// NewSentenceChunker creates a chunker. Without WithSplitter it uses the Punkt
// model, falling back to punctuation splitting if the model cannot be loaded.
func NewSentenceChunker(opts ...ChunkerOption) *SentenceChunker {
	c := &SentenceChunker{
		maxTokens:        DefaultMaxTokens,
		overlapSentences: DefaultOverlapSentences,
		minChunkTokens:   DefaultMinChunkTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.splitter == nil {
		if punkt, err := NewPunktSplitter(); err == nil {
			c.splitter = punkt
		} else {
			c.splitter = NewRegexSplitter()
		}
	}
	return c
}

// Chunk splits a section's text into chunks. Sentences are never split, so a
// sentence longer than the budget becomes a chunk of its own.
func (c *SentenceChunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	sents := c.splitter.Split(text)

	var chunks []string
	var current []string
	currentLen := 0

	for i, sent := range sents {
		n := CountTokens(sent)
		if currentLen+n <= c.maxTokens {
			current = append(current, sent)
			currentLen += n
			continue
		}

		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}

		start := max(0, i-c.overlapSentences)
		seed := make([]string, 0, i-start+1)
		seed = append(seed, sents[start:i]...)
		seed = append(seed, sent)
		// overlap yields to the budget; the new sentence itself is never dropped
		for len(seed) > 1 && countAll(seed) > c.maxTokens {
			seed = seed[1:]
		}
		current = seed
		currentLen = countAll(seed)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return c.mergeSmall(chunks)
}

func (c *SentenceChunker) mergeSmall(chunks []string) []string {
	merged := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		if CountTokens(ch) < c.minChunkTokens && len(merged) > 0 {
			merged[len(merged)-1] += " " + ch
			continue
		}
		merged = append(merged, ch)
	}
	return merged
}

func countAll(sents []string) int {
	total := 0
	for _, s := range sents {
		total += CountTokens(s)
	}
	return total
}
