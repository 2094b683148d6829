// Package memory implements db.Store with process-local maps. Used for
// ephemeral deployments and as the cache backing when no external
// key-value store is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/docuseek/docrag/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store is a mutex-guarded in-memory db.Store. TTLs are checked lazily
// on read.
type Store struct {
	mu      sync.RWMutex
	hashes  map[string]map[string]string
	kv      map[string][]byte
	expires map[string]time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		hashes:  make(map[string]map[string]string),
		kv:      make(map[string][]byte),
		expires: make(map[string]time.Time),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady always succeeds.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setHash(key, fields)
	return nil
}

// HSetMulti stores multiple hashes.
func (s *Store) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.setHash(item.Key, item.Fields)
	}
	return nil
}

func (s *Store) setHash(key string, fields map[string]string) {
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
}

// HGetAll returns all fields of a hash. Missing keys yield an empty map,
// matching Redis semantics.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyHash(s.hashes[key]), nil
}

// HGetAllMulti fetches all fields for multiple hashes.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		out[i] = copyHash(s.hashes[key])
	}
	return out, nil
}

// Del deletes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.del(key)
	return nil
}

// DelMulti deletes multiple keys.
func (s *Store) DelMulti(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		s.del(key)
	}
	return nil
}

func (s *Store) del(key string) {
	delete(s.hashes, key)
	delete(s.kv, key)
	delete(s.expires, key)
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expired(key) {
		return false, nil
	}
	if _, ok := s.kv[key]; ok {
		return true, nil
	}
	_, ok := s.hashes[key]
	return ok, nil
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expired(key) {
		return nil, db.ErrKeyNotFound
	}
	v, ok := s.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = append([]byte(nil), value...)
	delete(s.expires, key)
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = append([]byte(nil), value...)
	s.expires[key] = time.Now().Add(ttl)
	return nil
}

func (s *Store) expired(key string) bool {
	exp, ok := s.expires[key]
	return ok && time.Now().After(exp)
}

func copyHash(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
