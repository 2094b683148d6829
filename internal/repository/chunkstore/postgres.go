package chunkstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/docuseek/docrag/internal/domain"
)

// Postgres is a durable chunk store on Postgres with the pgvector
// extension: one row per chunk.
//
// Expected table (migrations are managed outside this service):
//
//	CREATE TABLE document_chunks (
//	    document_id  BIGINT NOT NULL,
//	    seq          INT    NOT NULL,
//	    chunk_text   TEXT   NOT NULL,
//	    embedding    VECTOR NOT NULL,
//	    start_offset INT    NOT NULL,
//	    end_offset   INT    NOT NULL,
//	    PRIMARY KEY (document_id, seq)
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres-backed chunk store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Has reports whether entries exist for the document.
func (p *Postgres) Has(ctx context.Context, documentID int64) (bool, error) {
	const query = `SELECT 1 FROM document_chunks WHERE document_id = $1 LIMIT 1`
	var one int
	err := p.db.QueryRowContext(ctx, query, documentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check chunks %d: %w", documentID, err)
	}
	return true, nil
}

// Put stores the complete entry set inside one transaction. No-op if
// rows already exist for the document; the existence check runs inside
// the same transaction, so concurrent writers for one document resolve
// to a single complete set.
func (p *Postgres) Put(ctx context.Context, documentID int64, entries []domain.Entry) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put %d: %w", documentID, err)
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM document_chunks WHERE document_id = $1 LIMIT 1`, documentID,
	).Scan(&one)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check chunks %d: %w", documentID, err)
	}

	const insert = `
		INSERT INTO document_chunks (document_id, seq, chunk_text, embedding, start_offset, end_offset)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, insert,
			documentID, e.Chunk.Seq, e.Chunk.Text,
			pgvector.NewVector(e.Vector), e.Chunk.Start, e.Chunk.End,
		); err != nil {
			return fmt.Errorf("insert chunk %d/%d: %w", documentID, e.Chunk.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks %d: %w", documentID, err)
	}
	return nil
}

// Get returns the entry set for a document, ordered by chunk sequence.
func (p *Postgres) Get(ctx context.Context, documentID int64) ([]domain.Entry, error) {
	const query = `
		SELECT seq, chunk_text, embedding, start_offset, end_offset
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY seq
	`
	rows, err := p.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("read chunks %d: %w", documentID, err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		var embedding pgvector.Vector
		if err := rows.Scan(&e.Chunk.Seq, &e.Chunk.Text, &embedding, &e.Chunk.Start, &e.Chunk.End); err != nil {
			return nil, fmt.Errorf("scan chunk of %d: %w", documentID, err)
		}
		e.Vector = embedding.Slice()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chunks %d: %w", documentID, err)
	}

	if len(entries) == 0 {
		return nil, domain.ErrNotFound
	}
	return entries, nil
}

// Delete removes all entries for a document.
func (p *Postgres) Delete(ctx context.Context, documentID int64) error {
	const query = `DELETE FROM document_chunks WHERE document_id = $1`
	if _, err := p.db.ExecContext(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete chunks %d: %w", documentID, err)
	}
	return nil
}
