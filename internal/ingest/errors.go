package ingest

import "errors"

// Fatal ingestion errors. Each is wrapped with the offending path or column.
var (
	ErrUnreadableInput = errors.New("input file unreadable")
	ErrTooFewLines     = errors.New("input needs a header row and at least one data row")
	ErrMissingColumn   = errors.New("required column not found in header")
)
