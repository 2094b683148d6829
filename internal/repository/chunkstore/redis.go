package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/docuseek/docrag/internal/db"
	"github.com/docuseek/docrag/internal/domain"
)

// store is the consumer interface for the Redis chunk store (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	DelMulti(ctx context.Context, keys []string) error
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Redis is a durable chunk store: one hash per chunk plus a per-document
// count key. The count key is written only after every chunk hash landed,
// so a document is queryable only once its entry set is complete.
type Redis struct {
	store store
}

// NewRedis creates a Redis-backed chunk store.
func NewRedis(s store) *Redis {
	return &Redis{store: s}
}

// Has reports whether a complete entry set exists for the document.
func (r *Redis) Has(ctx context.Context, documentID int64) (bool, error) {
	ok, err := r.store.Exists(ctx, countKey(documentID))
	if err != nil {
		return false, fmt.Errorf("check chunks %d: %w", documentID, err)
	}
	return ok, nil
}

// Put stores the complete entry set for a document. No-op if the document
// was already ingested. Chunk hashes are written first and the count key
// last; a failure in between leaves the document invisible to readers.
func (r *Redis) Put(ctx context.Context, documentID int64, entries []domain.Entry) error {
	exists, err := r.Has(ctx, documentID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	items := make([]db.HashSetItem, len(entries))
	for i, e := range entries {
		items[i] = db.HashSetItem{
			Key:    chunkKey(documentID, e.Chunk.Seq),
			Fields: buildHashFields(e),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store chunks %d: %w", documentID, err)
	}

	count := []byte(strconv.Itoa(len(entries)))
	if err := r.store.Set(ctx, countKey(documentID), count); err != nil {
		return fmt.Errorf("commit chunks %d: %w", documentID, err)
	}
	return nil
}

// Get returns the entry set for a document, ordered by chunk sequence.
func (r *Redis) Get(ctx context.Context, documentID int64) ([]domain.Entry, error) {
	raw, err := r.store.Get(ctx, countKey(documentID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read chunk count %d: %w", documentID, err)
	}

	count, err := strconv.Atoi(string(raw))
	if err != nil || count < 0 {
		return nil, fmt.Errorf("invalid chunk count %q for document %d", raw, documentID)
	}

	keys := make([]string, count)
	for i := 0; i < count; i++ {
		keys[i] = chunkKey(documentID, i)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read chunks %d: %w", documentID, err)
	}

	entries := make([]domain.Entry, 0, count)
	for i, m := range hashes {
		entry, err := parseHashFields(i, m)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", documentID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Delete removes all entries for a document. The count key goes first so
// concurrent readers stop seeing the document immediately.
func (r *Redis) Delete(ctx context.Context, documentID int64) error {
	raw, err := r.store.Get(ctx, countKey(documentID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("read chunk count %d: %w", documentID, err)
	}
	count, _ := strconv.Atoi(string(raw))

	if err := r.store.Del(ctx, countKey(documentID)); err != nil {
		return fmt.Errorf("delete chunk count %d: %w", documentID, err)
	}

	keys := make([]string, 0, count)
	for i := 0; i < count; i++ {
		keys = append(keys, chunkKey(documentID, i))
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete chunks %d: %w", documentID, err)
	}
	return nil
}
