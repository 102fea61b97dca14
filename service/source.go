package service

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"lexai-backend/models"
)

// DefaultMaxRecordSize bounds a single JSONL line; full decisions can run to megabytes
const DefaultMaxRecordSize = 16 * 1024 * 1024

var (
	errMissingURL  = errors.New("record has no url")
	errMissingText = errors.New("record has no text")
)

// SourceReader streams SourceRecords from a JSONL dataset
type SourceReader struct {
	reader  *bufio.Reader
	maxSize int
	line    int
}

// SourceReaderOption is a functional option for SourceReader
type SourceReaderOption func(*SourceReader)

// SourceWithMaxRecordSize caps the length of one line. Longer lines are
// skipped as malformed. Values below 1 keep the default.
func SourceWithMaxRecordSize(n int) SourceReaderOption {
	return func(s *SourceReader) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// NewSourceReader wraps r
func NewSourceReader(r io.Reader, opts ...SourceReaderOption) *SourceReader {
	s := &SourceReader{
		reader:  bufio.NewReaderSize(r, 64*1024),
		maxSize: DefaultMaxRecordSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next record. Blank lines are skipped. A line that does not
// decode, lacks url or text, or exceeds the size cap yields an *InputError and
// the reader stays usable. io.EOF marks the end of the stream.
func (s *SourceReader) Next() (models.SourceRecord, error) {
	for {
		raw, tooLong, err := s.readLine()
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return models.SourceRecord{}, err
		}
		if eof && len(raw) == 0 && !tooLong {
			return models.SourceRecord{}, io.EOF
		}
		s.line++

		if tooLong {
			return models.SourceRecord{}, &InputError{
				Line: s.line,
				Err:  fmt.Errorf("record exceeds %d bytes", s.maxSize),
			}
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}

		var rec models.SourceRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return models.SourceRecord{}, &InputError{Line: s.line, Err: err}
		}
		if strings.TrimSpace(rec.URL) == "" {
			return models.SourceRecord{}, &InputError{Line: s.line, Err: errMissingURL}
		}
		if rec.Text == "" {
			return models.SourceRecord{}, &InputError{Line: s.line, Err: errMissingText}
		}
		return rec, nil
	}
}

// readLine returns the next line. A line longer than maxSize is read to its
// end and discarded, with tooLong set.
func (s *SourceReader) readLine() (line []byte, tooLong bool, err error) {
	for {
		frag, readErr := s.reader.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(bytes.TrimRight(frag, "\r\n")) > s.maxSize {
				tooLong = true
				line = nil
			} else {
				line = append(line, frag...)
			}
		}
		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, readErr
	}
}

// Line returns the 1-based number of the last line read
func (s *SourceReader) Line() int {
	return s.line
}
