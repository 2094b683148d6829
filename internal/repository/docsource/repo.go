// Package docsource persists the raw extracted text of analyzed
// documents. Retrieval reads it back for on-demand ingestion when a
// document has no stored chunks yet.
package docsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/docuseek/docrag/internal/db"
	"github.com/docuseek/docrag/internal/domain"
)

// kv is the consumer interface for the key-value backed source (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// KV stores raw document text in a key-value store.
type KV struct {
	store kv
}

// NewKV creates a key-value backed document source.
func NewKV(s kv) *KV {
	return &KV{store: s}
}

func sourceKey(documentID int64) string {
	return fmt.Sprintf("%ssource:%d", domain.KeyPrefix, documentID)
}

// Save stores the raw text for a document. Overwrites silently: the text
// is derived deterministically from the uploaded document.
func (r *KV) Save(ctx context.Context, documentID int64, text string) error {
	if err := r.store.Set(ctx, sourceKey(documentID), []byte(text)); err != nil {
		return fmt.Errorf("save source %d: %w", documentID, err)
	}
	return nil
}

// Get returns the raw text for a document, or domain.ErrNotFound.
func (r *KV) Get(ctx context.Context, documentID int64) (string, error) {
	data, err := r.store.Get(ctx, sourceKey(documentID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("read source %d: %w", documentID, err)
	}
	return string(data), nil
}

// Delete removes the raw text for a document.
func (r *KV) Delete(ctx context.Context, documentID int64) error {
	if err := r.store.Del(ctx, sourceKey(documentID)); err != nil {
		return fmt.Errorf("delete source %d: %w", documentID, err)
	}
	return nil
}
