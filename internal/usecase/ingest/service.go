package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/docuseek/docrag/internal/domain"
	"github.com/docuseek/docrag/internal/metrics"
	"github.com/docuseek/docrag/internal/textproc"
)

const (
	defaultBatchSize  = 10
	defaultMinTextLen = 50
)

// Service turns raw document text into embedded chunks and persists them.
// Documents are immutable: ingesting an already stored document is a no-op.
type Service struct {
	store      Store
	embedder   domain.Embedder
	chunker    Chunker
	batchSize  int
	minTextLen int
	logger     *zap.Logger
}

type Option func(*Service)

// WithBatchSize sets how many chunks are embedded concurrently per batch.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithMinTextLen sets the minimum normalized text length accepted for ingestion.
func WithMinTextLen(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minTextLen = n
		}
	}
}

func New(store Store, embedder domain.Embedder, chunker Chunker, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		embedder:   embedder,
		chunker:    chunker,
		batchSize:  defaultBatchSize,
		minTextLen: defaultMinTextLen,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest normalizes, chunks, embeds and stores the given document text.
// Returns nil without doing any work when the document is already stored.
func (s *Service) Ingest(ctx context.Context, documentID int64, rawText string) error {
	start := time.Now()

	exists, err := s.store.Has(ctx, documentID)
	if err != nil {
		metrics.IngestFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return fmt.Errorf("check document %d: %w", documentID, err)
	}
	if exists {
		s.logger.Debug("document already ingested, skipping",
			zap.Int64("document_id", documentID))
		return nil
	}

	text := textproc.Normalize(rawText)
	if len(text) < s.minTextLen {
		metrics.IngestFailuresTotal.WithLabelValues("empty_content").Inc()
		return fmt.Errorf("document %d: text too short (%d bytes): %w",
			documentID, len(text), domain.ErrEmptyContent)
	}

	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		metrics.IngestFailuresTotal.WithLabelValues("empty_content").Inc()
		return fmt.Errorf("document %d: no chunks produced: %w", documentID, domain.ErrEmptyContent)
	}

	s.logger.Info("ingesting document",
		zap.Int64("document_id", documentID),
		zap.Int("text_bytes", len(text)),
		zap.Int("chunks", len(chunks)))

	entries, err := s.embedChunks(ctx, chunks)
	if err != nil {
		metrics.IngestFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return fmt.Errorf("embed document %d: %w", documentID, err)
	}

	if err := s.store.Put(ctx, documentID, entries); err != nil {
		metrics.IngestFailuresTotal.WithLabelValues("store").Inc()
		return fmt.Errorf("store document %d: %w", documentID, err)
	}

	metrics.IngestedChunksTotal.Add(float64(len(entries)))
	metrics.IngestDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("document ingested",
		zap.Int64("document_id", documentID),
		zap.Int("chunks", len(entries)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// IngestAsync runs Ingest in the background, logging instead of returning errors.
func (s *Service) IngestAsync(documentID int64, rawText string) {
	go func() {
		if err := s.Ingest(context.Background(), documentID, rawText); err != nil {
			s.logger.Error("background ingestion failed",
				zap.Int64("document_id", documentID),
				zap.Error(err))
		}
	}()
}

// embedChunks embeds chunks in sequential batches. Embeddings within a batch
// run concurrently, results keep chunk order.
func (s *Service) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.Entry, error) {
	entries := make([]domain.Entry, len(chunks))
	for base := 0; base < len(chunks); base += s.batchSize {
		end := base + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := base; i < end; i++ {
			i := i
			g.Go(func() error {
				vec, err := s.embedder.Embed(gctx, chunks[i].Text)
				if err != nil {
					return fmt.Errorf("chunk %d: %w", chunks[i].Seq, err)
				}
				entries[i] = domain.Entry{Chunk: chunks[i], Vector: vec}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		s.logger.Debug("embedded batch",
			zap.Int("done", end),
			zap.Int("total", len(chunks)))
	}
	return entries, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyContent):
		return "empty_content"
	case errors.Is(err, domain.ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, domain.ErrVectorDimMismatch):
		return "dimension_mismatch"
	default:
		return "other"
	}
}
