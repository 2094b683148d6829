package retrieve

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/docuseek/docrag/internal/domain"
)

func entry(seq int, text string, vec domain.Vector) domain.Entry {
	return domain.Entry{
		Chunk:  domain.Chunk{Text: text, Seq: seq},
		Vector: vec,
	}
}

func TestRetrieveRanksByCosineSimilarity(t *testing.T) {
	store := newMockStore()
	store.docs[1] = []domain.Entry{
		entry(0, "orthogonal", domain.Vector{0, 1, 0}),
		entry(1, "exact", domain.Vector{1, 0, 0}),
		entry(2, "close", domain.Vector{0.9, 0.1, 0}),
	}
	emb := &mockEmbedder{fn: func(context.Context, string) (domain.Vector, error) {
		return domain.Vector{1, 0, 0}, nil
	}}
	svc := New(store, newMockSource(), &mockIngester{}, emb, zap.NewNop())

	res, err := svc.Retrieve(context.Background(), 1, "query", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	want := []string{"exact", "close", "orthogonal"}
	for i, w := range want {
		if res.Chunks[i] != w {
			t.Errorf("chunk %d = %q, want %q", i, res.Chunks[i], w)
		}
	}
	for i := 1; i < len(res.Scores); i++ {
		if res.Scores[i] > res.Scores[i-1] {
			t.Errorf("scores not descending at %d: %v", i, res.Scores)
		}
	}
}

func TestRetrieveTiesKeepChunkOrder(t *testing.T) {
	store := newMockStore()
	store.docs[1] = []domain.Entry{
		entry(0, "first", domain.Vector{1, 0}),
		entry(1, "second", domain.Vector{1, 0}),
		entry(2, "third", domain.Vector{1, 0}),
	}
	svc := New(store, newMockSource(), &mockIngester{}, &mockEmbedder{}, zap.NewNop())

	res, err := svc.Retrieve(context.Background(), 1, "q", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if res.Chunks[i] != w {
			t.Errorf("chunk %d = %q, want %q", i, res.Chunks[i], w)
		}
	}
}

func TestRetrieveCapsTopKAtAvailable(t *testing.T) {
	store := newMockStore()
	store.docs[1] = []domain.Entry{
		entry(0, "only", domain.Vector{1, 0}),
		entry(1, "two", domain.Vector{0, 1}),
	}
	svc := New(store, newMockSource(), &mockIngester{}, &mockEmbedder{}, zap.NewNop())

	res, err := svc.Retrieve(context.Background(), 1, "q", 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(res.Chunks) != 2 || len(res.Scores) != 2 {
		t.Errorf("got %d chunks, %d scores, want 2 each", len(res.Chunks), len(res.Scores))
	}
}

func TestRetrieveDefaultTopK(t *testing.T) {
	store := newMockStore()
	store.docs[1] = []domain.Entry{
		entry(0, "a", domain.Vector{1, 0}),
		entry(1, "b", domain.Vector{0, 1}),
		entry(2, "c", domain.Vector{1, 1}),
		entry(3, "d", domain.Vector{-1, 0}),
	}
	svc := New(store, newMockSource(), &mockIngester{}, &mockEmbedder{}, zap.NewNop(), WithTopK(2))

	res, err := svc.Retrieve(context.Background(), 1, "q", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(res.Chunks) != 2 {
		t.Errorf("got %d chunks, want default 2", len(res.Chunks))
	}
}

func TestRetrieveUnknownDocument(t *testing.T) {
	svc := New(newMockStore(), newMockSource(), &mockIngester{}, &mockEmbedder{}, zap.NewNop())

	_, err := svc.Retrieve(context.Background(), 99, "q", 3)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRetrieveIngestsOnDemand(t *testing.T) {
	store := newMockStore()
	source := newMockSource()
	source.texts[5] = "Stored source text. It has sentences."
	ing := &mockIngester{fn: func(_ context.Context, id int64, text string) error {
		store.docs[id] = []domain.Entry{entry(0, text, domain.Vector{1, 0})}
		return nil
	}}
	svc := New(store, source, ing, &mockEmbedder{}, zap.NewNop())

	res, err := svc.Retrieve(context.Background(), 5, "q", 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if ing.calls != 1 {
		t.Errorf("ingester called %d times, want 1", ing.calls)
	}
	if len(res.Chunks) != 1 || res.Chunks[0] != source.texts[5] {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRetrieveDoesNotRetryAfterIngestion(t *testing.T) {
	store := newMockStore()
	source := newMockSource()
	source.texts[5] = "Some text."
	ing := &mockIngester{} // succeeds but leaves the store empty

	svc := New(store, source, ing, &mockEmbedder{}, zap.NewNop())

	_, err := svc.Retrieve(context.Background(), 5, "q", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if ing.calls != 1 {
		t.Errorf("ingester called %d times, want 1", ing.calls)
	}
	if store.getCalls != 1 {
		t.Errorf("store queried %d times, want 1", store.getCalls)
	}
}

func TestRetrieveIngestionFailurePropagates(t *testing.T) {
	store := newMockStore()
	source := newMockSource()
	source.texts[5] = "Some text."
	ing := &mockIngester{fn: func(context.Context, int64, string) error {
		return domain.ErrModelUnavailable
	}}
	svc := New(store, source, ing, &mockEmbedder{}, zap.NewNop())

	_, err := svc.Retrieve(context.Background(), 5, "q", 1)
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
}

func TestRetrieveQueryEmbedFailure(t *testing.T) {
	store := newMockStore()
	store.docs[1] = []domain.Entry{entry(0, "a", domain.Vector{1, 0})}
	emb := &mockEmbedder{fn: func(context.Context, string) (domain.Vector, error) {
		return nil, domain.ErrModelUnavailable
	}}
	svc := New(store, newMockSource(), &mockIngester{}, emb, zap.NewNop())

	_, err := svc.Retrieve(context.Background(), 1, "q", 1)
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
}
