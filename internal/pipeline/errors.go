package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBatch = errors.New("batch has no documents")
	ErrNoResult   = errors.New("no chunk produced a result")
)

// ExtractionError is a document that could not be parsed. It never aborts
// the other documents of its chunk.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ChunkError is a chunk whose pipeline failed as a whole.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// TransientError marks a failure worth retrying at the executor boundary.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
