package docsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/docuseek/docrag/internal/domain"
)

// Postgres stores raw document text in a Postgres table.
//
// Expected table (migrations are managed outside this service):
//
//	CREATE TABLE document_sources (
//	    document_id BIGINT PRIMARY KEY,
//	    raw_text    TEXT NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed document source.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Save stores the raw text for a document, overwriting any previous text.
func (r *Postgres) Save(ctx context.Context, documentID int64, text string) error {
	const query = `
		INSERT INTO document_sources (document_id, raw_text)
		VALUES ($1, $2)
		ON CONFLICT (document_id) DO UPDATE SET raw_text = EXCLUDED.raw_text
	`
	if _, err := r.db.ExecContext(ctx, query, documentID, text); err != nil {
		return fmt.Errorf("save source %d: %w", documentID, err)
	}
	return nil
}

// Get returns the raw text for a document, or domain.ErrNotFound.
func (r *Postgres) Get(ctx context.Context, documentID int64) (string, error) {
	const query = `SELECT raw_text FROM document_sources WHERE document_id = $1`
	var text string
	err := r.db.QueryRowContext(ctx, query, documentID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read source %d: %w", documentID, err)
	}
	return text, nil
}

// Delete removes the raw text for a document.
func (r *Postgres) Delete(ctx context.Context, documentID int64) error {
	const query = `DELETE FROM document_sources WHERE document_id = $1`
	if _, err := r.db.ExecContext(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete source %d: %w", documentID, err)
	}
	return nil
}
