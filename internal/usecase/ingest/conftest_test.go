package ingest

import (
	"context"
	"sync"

	"github.com/docuseek/docrag/internal/domain"
)

type mockStore struct {
	mu      sync.Mutex
	docs    map[int64][]domain.Entry
	hasFn   func(ctx context.Context, documentID int64) (bool, error)
	putFn   func(ctx context.Context, documentID int64, entries []domain.Entry) error
	putCall int
}

func newMockStore() *mockStore {
	return &mockStore{docs: make(map[int64][]domain.Entry)}
}

func (m *mockStore) Has(ctx context.Context, documentID int64) (bool, error) {
	if m.hasFn != nil {
		return m.hasFn(ctx, documentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[documentID]
	return ok, nil
}

func (m *mockStore) Put(ctx context.Context, documentID int64, entries []domain.Entry) error {
	m.mu.Lock()
	m.putCall++
	m.mu.Unlock()
	if m.putFn != nil {
		return m.putFn(ctx, documentID, entries)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[documentID] = entries
	return nil
}

type mockEmbedder struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, text string) (domain.Vector, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.Vector, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(ctx, text)
	}
	return domain.Vector{1, 0, 0}, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
