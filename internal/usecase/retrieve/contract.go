package retrieve

import (
	"context"

	"github.com/docuseek/docrag/internal/domain"
)

// Store defines the chunk store contract for retrieval.
type Store interface {
	Has(ctx context.Context, documentID int64) (bool, error)
	Get(ctx context.Context, documentID int64) ([]domain.Entry, error)
}

// Source provides the raw text of a document for on-demand ingestion.
type Source interface {
	Get(ctx context.Context, documentID int64) (string, error)
}

// Ingester ingests a document synchronously.
type Ingester interface {
	Ingest(ctx context.Context, documentID int64, rawText string) error
}
