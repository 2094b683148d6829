package retrieve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/docuseek/docrag/internal/domain"
	"github.com/docuseek/docrag/internal/metrics"
)

const defaultTopK = 3

// Result holds the chunks most relevant to a query, best first,
// with their cosine similarity scores aligned by index.
type Result struct {
	Chunks []string
	Scores []float64
}

// Service answers queries against stored document chunks, ingesting the
// document on demand from its saved source text when it is not stored yet.
type Service struct {
	store    Store
	source   Source
	ingester Ingester
	embedder domain.Embedder
	topK     int
	logger   *zap.Logger
}

type Option func(*Service)

// WithTopK sets the default number of chunks returned when the caller asks for none.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

func New(store Store, source Source, ingester Ingester, embedder domain.Embedder, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		source:   source,
		ingester: ingester,
		embedder: embedder,
		topK:     defaultTopK,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve returns the topK chunks of the document most similar to the query.
// A document missing from the store is ingested once from its saved source
// text; if no source exists either, ErrNotFound is returned.
func (s *Service) Retrieve(ctx context.Context, documentID int64, query string, topK int) (Result, error) {
	if topK <= 0 {
		topK = s.topK
	}

	if err := s.ensureIngested(ctx, documentID); err != nil {
		s.observe(err)
		return Result{}, err
	}

	entries, err := s.store.Get(ctx, documentID)
	if err != nil {
		s.observe(err)
		return Result{}, fmt.Errorf("load document %d: %w", documentID, err)
	}

	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.observe(err)
		return Result{}, fmt.Errorf("embed query: %w", err)
	}

	idx := make([]int, len(entries))
	scores := make([]float64, len(entries))
	for i, e := range entries {
		idx[i] = i
		scores[i] = domain.Cosine(qvec, e.Vector)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	if topK > len(idx) {
		topK = len(idx)
	}
	res := Result{
		Chunks: make([]string, topK),
		Scores: make([]float64, topK),
	}
	for i := 0; i < topK; i++ {
		res.Chunks[i] = entries[idx[i]].Chunk.Text
		res.Scores[i] = scores[idx[i]]
	}

	metrics.RetrievalsTotal.WithLabelValues("success").Inc()
	s.logger.Debug("retrieval done",
		zap.Int64("document_id", documentID),
		zap.Int("candidates", len(entries)),
		zap.Int("returned", topK))
	return res, nil
}

// ensureIngested makes sure the document's chunks are stored, running a
// single on-demand ingestion from the saved source text when they are not.
func (s *Service) ensureIngested(ctx context.Context, documentID int64) error {
	exists, err := s.store.Has(ctx, documentID)
	if err != nil {
		return fmt.Errorf("check document %d: %w", documentID, err)
	}
	if exists {
		return nil
	}

	text, err := s.source.Get(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %d has no stored text: %w", documentID, domain.ErrNotFound)
		}
		return fmt.Errorf("load source for document %d: %w", documentID, err)
	}

	s.logger.Info("ingesting document on demand", zap.Int64("document_id", documentID))
	if err := s.ingester.Ingest(ctx, documentID, text); err != nil {
		return fmt.Errorf("on-demand ingestion of document %d: %w", documentID, err)
	}
	return nil
}

func (s *Service) observe(err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		metrics.RetrievalsTotal.WithLabelValues("not_found").Inc()
	default:
		metrics.RetrievalsTotal.WithLabelValues("error").Inc()
	}
}
