// Package embedding holds embedder decorators used by the ingestion and
// retrieval services.
package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/docuseek/docrag/internal/domain"
)

// Factory builds the inner embedder; called once, on first use. It may
// dial the provider or run a probe request, so it takes a context.
type Factory func(ctx context.Context) (domain.Embedder, error)

// Lazy defers embedder construction to the first Embed call. Concurrent
// first callers share a single in-flight initialization; none of them
// can trigger a duplicate build. The init outcome (including failure) is
// cached for the process lifetime — the provider is a read-only shared
// resource once up, and a failed load is not retried until restart.
type Lazy struct {
	build Factory

	once  sync.Once
	inner domain.Embedder
	err   error
}

// NewLazy creates a lazily-initialized embedder.
func NewLazy(build Factory) *Lazy {
	return &Lazy{build: build}
}

// Embed initializes the inner embedder if needed and delegates to it.
func (l *Lazy) Embed(ctx context.Context, text string) (domain.Vector, error) {
	inner, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return inner.Embed(ctx, text)
}

// HealthCheck initializes the inner embedder if needed and probes it.
func (l *Lazy) HealthCheck(ctx context.Context) error {
	inner, err := l.get(ctx)
	if err != nil {
		return err
	}
	if hc, ok := inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedder health check: %w", err)
		}
	}
	return nil
}

func (l *Lazy) get(ctx context.Context) (domain.Embedder, error) {
	l.once.Do(func() {
		l.inner, l.err = l.build(ctx)
	})
	if l.err != nil {
		return nil, fmt.Errorf("initialize embedder: %w: %w", l.err, domain.ErrModelUnavailable)
	}
	return l.inner, nil
}
