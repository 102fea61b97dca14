package chunking

import (
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// SentenceSplitter breaks text into sentences
type SentenceSplitter interface {
	Split(text string) []string
}

// PunktSplitter detects sentence boundaries with the English Punkt model
type PunktSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSplitter loads the bundled English Punkt model
func NewPunktSplitter() (*PunktSplitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &PunktSplitter{tokenizer: tokenizer}, nil
}

// Split returns the trimmed, non-empty sentences of text
func (p *PunktSplitter) Split(text string) []string {
	var out []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// RegexSplitter cuts after every '.', '!' or '?'. Used when the Punkt model is unavailable.
type RegexSplitter struct {
	pattern *regexp.Regexp
}

// NewRegexSplitter creates a punctuation-based splitter
func NewRegexSplitter() *RegexSplitter {
	return &RegexSplitter{pattern: regexp.MustCompile(`[^.!?]+[.!?]+`)}
}

// Split returns the trimmed, non-empty sentences of text. A trailing fragment
// without terminal punctuation is kept as its own sentence.
func (r *RegexSplitter) Split(text string) []string {
	var out []string
	end := 0
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		if t := strings.TrimSpace(text[loc[0]:loc[1]]); t != "" {
			out = append(out, t)
		}
		end = loc[1]
	}
	if t := strings.TrimSpace(text[end:]); t != "" {
		out = append(out, t)
	}
	return out
}
