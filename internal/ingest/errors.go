package ingest

import "errors"

// Sentinel errors for the ingestion pipeline.
var (
	// ErrAlreadyStarted is returned when Start is called on a running service.
	ErrAlreadyStarted = errors.New("ingest: service already started")

	// ErrClosed is returned when work is submitted after Close.
	ErrClosed = errors.New("ingest: service closed")
)
