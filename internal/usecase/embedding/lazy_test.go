package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/docuseek/docrag/internal/domain"
)

type stubEmbedder struct {
	vec domain.Vector
}

func (s *stubEmbedder) Embed(context.Context, string) (domain.Vector, error) {
	return s.vec, nil
}

func TestLazy_BuildsOnce(t *testing.T) {
	var builds int32
	l := NewLazy(func(context.Context) (domain.Embedder, error) {
		atomic.AddInt32(&builds, 1)
		return &stubEmbedder{vec: domain.Vector{1}}, nil
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := l.Embed(ctx, "x"); err != nil {
			t.Fatalf("Embed: %v", err)
		}
	}
	if builds != 1 {
		t.Errorf("factory ran %d times, want 1", builds)
	}
}

func TestLazy_ConcurrentFirstUseSingleBuild(t *testing.T) {
	var builds int32
	started := make(chan struct{})
	l := NewLazy(func(context.Context) (domain.Embedder, error) {
		atomic.AddInt32(&builds, 1)
		<-started // hold the build until all goroutines are racing
		return &stubEmbedder{vec: domain.Vector{1}}, nil
	})

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Embed(context.Background(), "x")
		}(i)
	}
	close(started)
	wg.Wait()

	if builds != 1 {
		t.Errorf("factory ran %d times under concurrency, want 1", builds)
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
}

func TestLazy_InitFailureCachedAndTyped(t *testing.T) {
	var builds int32
	l := NewLazy(func(context.Context) (domain.Embedder, error) {
		atomic.AddInt32(&builds, 1)
		return nil, errors.New("model download failed")
	})

	ctx := context.Background()
	_, err1 := l.Embed(ctx, "x")
	_, err2 := l.Embed(ctx, "x")

	if !errors.Is(err1, domain.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err1)
	}
	if !errors.Is(err2, domain.ErrModelUnavailable) {
		t.Errorf("expected cached ErrModelUnavailable, got %v", err2)
	}
	if builds != 1 {
		t.Errorf("failed factory retried: %d builds", builds)
	}
}
