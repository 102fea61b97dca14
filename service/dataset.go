package service

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"lexai-backend/chunking"
)

// CleanStats counts what CleanDataset did
type CleanStats struct {
	Records int
	Trimmed int
	Invalid int
}

// CleanDataset copies a JSONL dataset from r to w, cutting the court header
// that precedes the division line out of every record's text. Other fields
// are passed through untouched. Lines that are not JSON objects are copied as is.
func CleanDataset(r io.Reader, w io.Writer) (CleanStats, error) {
	var stats CleanStats

	in := bufio.NewReaderSize(r, 64*1024)
	out := bufio.NewWriter(w)

	for {
		line, readErr := in.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return stats, fmt.Errorf("failed to read dataset: %w", readErr)
		}
		line = bytes.TrimRight(line, "\r\n")
		if len(bytes.TrimSpace(line)) == 0 {
			if readErr != nil {
				break
			}
			continue
		}
		stats.Records++

		cleaned, changed, err := cleanRecord(line)
		if err != nil {
			stats.Invalid++
			cleaned = line
		}
		if changed {
			stats.Trimmed++
		}

		if _, err := out.Write(cleaned); err != nil {
			return stats, fmt.Errorf("failed to write record: %w", err)
		}
		if err := out.WriteByte('\n'); err != nil {
			return stats, fmt.Errorf("failed to write record: %w", err)
		}
		if readErr != nil {
			break
		}
	}
	return stats, out.Flush()
}

func cleanRecord(line []byte) ([]byte, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, false, err
	}
	raw, ok := fields["text"]
	if !ok {
		return line, false, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, false, err
	}
	cleaned := chunking.CutBeforeDivision(text)
	if cleaned == text {
		return line, false, nil
	}

	encoded, err := json.Marshal(cleaned)
	if err != nil {
		return nil, false, err
	}
	fields["text"] = encoded

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}
