package embedding

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// TiktokenCounter counts BPE tokens with tiktoken-go
type TiktokenCounter struct {
	encodingName string
	tke          *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, or cl100k_base when empty
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", encoding, err)
	}
	return &TiktokenCounter{encodingName: encoding, tke: tke}, nil
}

// CountTokens implements TokenCounter
func (c *TiktokenCounter) CountTokens(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}

// Encoding returns the encoding name in use
func (c *TiktokenCounter) Encoding() string {
	return c.encodingName
}
