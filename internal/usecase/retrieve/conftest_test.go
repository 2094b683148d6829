package retrieve

import (
	"context"
	"fmt"

	"github.com/docuseek/docrag/internal/domain"
)

type mockStore struct {
	docs     map[int64][]domain.Entry
	hasFn    func(ctx context.Context, documentID int64) (bool, error)
	getFn    func(ctx context.Context, documentID int64) ([]domain.Entry, error)
	getCalls int
}

func newMockStore() *mockStore {
	return &mockStore{docs: make(map[int64][]domain.Entry)}
}

func (m *mockStore) Has(ctx context.Context, documentID int64) (bool, error) {
	if m.hasFn != nil {
		return m.hasFn(ctx, documentID)
	}
	_, ok := m.docs[documentID]
	return ok, nil
}

func (m *mockStore) Get(ctx context.Context, documentID int64) ([]domain.Entry, error) {
	m.getCalls++
	if m.getFn != nil {
		return m.getFn(ctx, documentID)
	}
	entries, ok := m.docs[documentID]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", documentID, domain.ErrNotFound)
	}
	return entries, nil
}

type mockSource struct {
	texts map[int64]string
	calls int
}

func newMockSource() *mockSource {
	return &mockSource{texts: make(map[int64]string)}
}

func (m *mockSource) Get(ctx context.Context, documentID int64) (string, error) {
	m.calls++
	text, ok := m.texts[documentID]
	if !ok {
		return "", fmt.Errorf("source %d: %w", documentID, domain.ErrNotFound)
	}
	return text, nil
}

type mockIngester struct {
	fn    func(ctx context.Context, documentID int64, rawText string) error
	calls int
}

func (m *mockIngester) Ingest(ctx context.Context, documentID int64, rawText string) error {
	m.calls++
	if m.fn != nil {
		return m.fn(ctx, documentID, rawText)
	}
	return nil
}

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (domain.Vector, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.Vector, error) {
	if m.fn != nil {
		return m.fn(ctx, text)
	}
	return domain.Vector{1, 0, 0}, nil
}
