package chunkstore

import (
	"context"

	"github.com/docuseek/docrag/internal/db"
	"github.com/docuseek/docrag/internal/domain"
)

// mockStore implements the consumer interface for tests. Unset funcs
// fall back to an in-memory fake so tests read back what they wrote.
type mockStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	hgetAllMultiF func(ctx context.Context, keys []string) ([]map[string]string, error)
	existsFn      func(ctx context.Context, key string) (bool, error)
	getFn         func(ctx context.Context, key string) ([]byte, error)
	setFn         func(ctx context.Context, key string, value []byte) error

	hashes map[string]map[string]string
	kv     map[string][]byte
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes: make(map[string]map[string]string),
		kv:     make(map[string][]byte),
	}
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	for _, item := range items {
		m.hashes[item.Key] = item.Fields
	}
	return nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiF != nil {
		return m.hgetAllMultiF(ctx, keys)
	}
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = m.hashes[k]
	}
	return out, nil
}

func (m *mockStore) DelMulti(_ context.Context, keys []string) error {
	for _, k := range keys {
		delete(m.hashes, k)
		delete(m.kv, k)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	_, ok := m.kv[key]
	return ok, nil
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.kv[key] = value
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.kv, key)
	delete(m.hashes, key)
	return nil
}

func sampleEntries() []domain.Entry {
	return []domain.Entry{
		{
			Chunk:  domain.Chunk{Text: "first chunk.", Start: 0, End: 12, Seq: 0},
			Vector: domain.Vector{1, 0, 0},
		},
		{
			Chunk:  domain.Chunk{Text: "second chunk.", Start: 8, End: 21, Seq: 1},
			Vector: domain.Vector{0, 1, 0},
		},
	}
}
