package ingest

import (
	"context"

	"github.com/docuseek/docrag/internal/domain"
)

// Store defines the chunk store contract for ingestion.
type Store interface {
	Has(ctx context.Context, documentID int64) (bool, error)
	Put(ctx context.Context, documentID int64, entries []domain.Entry) error
}

// Chunker splits normalized text into overlapping chunks.
type Chunker interface {
	Chunk(text string) []domain.Chunk
}
