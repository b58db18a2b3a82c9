package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned for rows missing one of the three
	// required columns.
	ErrMalformedRecord = errors.New("loader: malformed record")

	// ErrUnsupportedNamespace is returned when a record's terms belong to a
	// namespace the loader was not configured for.
	ErrUnsupportedNamespace = errors.New("loader: unsupported namespace")

	// ErrSkipLimitExceeded is returned when more records failed validation
	// than the configured maximum.
	ErrSkipLimitExceeded = errors.New("loader: skipped record limit exceeded")
)

// RecordError is a validation failure for a single record. The record is
// skipped; loading continues.
type RecordError struct {
	Source string
	Line   int
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
