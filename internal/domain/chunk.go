package domain

import "context"

// Chunk is a contiguous slice of a document's normalized text. Chunks are
// immutable once created. Start/End are character offsets into the
// normalized text; consecutive chunks overlap, so offsets are positional
// metadata rather than a partition of the text.
type Chunk struct {
	Text  string
	Start int
	End   int
	Seq   int
}

// Entry is the persisted unit of the vector store: a chunk paired with
// its embedding. For a given document the stored entry set is either
// empty or complete — readers never observe a partial ingestion.
type Entry struct {
	Chunk  Chunk
	Vector Vector
}

// Embedder is the shared text vectorization contract between layers.
// Ingestion and retrieval must use the same Embedder: vectors produced
// by different models are not comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
