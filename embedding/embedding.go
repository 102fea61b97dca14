package embedding

import (
	"context"
	"math"
	"strings"
)

// Role selects the framing a text is embedded under. Queries and passages
// share a model but use different prefixes and task types.
type Role string

const (
	RolePassage Role = "passage"
	RoleQuery   Role = "query"
)

// Gateway encodes text into a normalized, fixed-length vector
type Gateway interface {
	Encode(ctx context.Context, text string, role Role) ([]float32, error)
}

// TokenCounter counts model tokens in a text
type TokenCounter interface {
	CountTokens(text string) int
}

// Normalize scales v to unit length in place. A zero vector is left unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// WordCounter counts whitespace-delimited words
type WordCounter struct{}

// CountTokens implements TokenCounter
func (WordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}
