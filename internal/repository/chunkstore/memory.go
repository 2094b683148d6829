// Package chunkstore persists (chunk, embedding) entry sets keyed by
// document id. All backings share the same contract: Put is an idempotent
// no-op for an already-ingested document, and readers never observe a
// partially written entry set.
package chunkstore

import (
	"context"
	"sync"

	"github.com/docuseek/docrag/internal/domain"
)

// Memory is a process-local chunk store. Entries are lost on restart,
// which is acceptable for ephemeral deployments; retrieval re-ingests on
// demand from the document source.
type Memory struct {
	mu   sync.RWMutex
	docs map[int64][]domain.Entry
}

// NewMemory creates an empty in-memory chunk store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[int64][]domain.Entry)}
}

// Has reports whether entries exist for the document.
func (m *Memory) Has(_ context.Context, documentID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.docs[documentID]
	return ok, nil
}

// Put stores the complete entry set for a document. A second Put for the
// same document is a no-op: documents are immutable post-ingestion.
func (m *Memory) Put(_ context.Context, documentID int64, entries []domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[documentID]; ok {
		return nil
	}
	stored := make([]domain.Entry, len(entries))
	copy(stored, entries)
	m.docs[documentID] = stored
	return nil
}

// Get returns the entry set for a document, or domain.ErrNotFound.
func (m *Memory) Get(_ context.Context, documentID int64) ([]domain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries, ok := m.docs[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Delete removes all entries for a document. Deleting an absent document
// is not an error.
func (m *Memory) Delete(_ context.Context, documentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, documentID)
	return nil
}
