package chi

import (
	"context"

	"github.com/docuseek/docrag/internal/usecase/retrieve"
)

// Ingester starts background ingestion of a document.
type Ingester interface {
	IngestAsync(documentID int64, rawText string)
}

// Retriever answers a query against a document's chunks.
type Retriever interface {
	Retrieve(ctx context.Context, documentID int64, query string, topK int) (retrieve.Result, error)
}

// SourceStore persists raw document text for on-demand ingestion.
type SourceStore interface {
	Save(ctx context.Context, documentID int64, text string) error
	Delete(ctx context.Context, documentID int64) error
}

// ChunkDeleter removes a document's stored chunks.
type ChunkDeleter interface {
	Delete(ctx context.Context, documentID int64) error
}

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
