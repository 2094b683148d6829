package domain

import "errors"

var (
	// ErrNotFound signals that a document has no stored chunks and no
	// recoverable source text.
	ErrNotFound = errors.New("document not found")
	// ErrEmptyContent signals that normalized text is too short to ingest.
	ErrEmptyContent = errors.New("document content is empty or too short")
	// ErrModelUnavailable signals an embedding model load or inference failure.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
