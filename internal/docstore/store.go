// Package docstore persists ingested documents and their chunks in SQLite.
// It is the system of record for what has been indexed: the vector store can
// be rebuilt from it, and document removal uses it to find the chunk IDs to
// delete from the index.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrInvalidDocument is returned when a document has no usable text content.
var ErrInvalidDocument = errors.New("docstore: document has no extractable text")

// ErrNotFound is returned when a document ID does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Document is a stored source document.
type Document struct {
	// ID is the document's UUID.
	ID string

	// Source is the human-readable origin (file name or label).
	Source string

	// Content is the full extracted text.
	Content string

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// ChunkRow is a stored chunk belonging to a document.
type ChunkRow struct {
	// ID is the chunk's UUID (deterministic per document and sequence).
	ID string

	// DocumentID links back to the owning document.
	DocumentID string

	// Seq is the chunk's position within the document, starting at 0.
	Seq int

	// Content is the chunk text.
	Content string
}

// Store wraps a SQLite database holding documents and chunks.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
// SQLite allows a single writer; we cap the pool at one connection to avoid
// SQLITE_BUSY under concurrent appends.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("docstore: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	content     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("docstore: migrate: %w", err)
	}
	return nil
}

// Insert stores a document and its chunks in a single transaction.
func (s *Store) Insert(ctx context.Context, doc Document, chunks []ChunkRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("docstore: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, source, content, created_at) VALUES (?, ?, ?, ?)`,
		doc.ID, doc.Source, doc.Content, doc.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("docstore: insert document: %w", err)
	}

	for _, c := range chunks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (id, document_id, seq, content) VALUES (?, ?, ?, ?)`,
			c.ID, c.DocumentID, c.Seq, c.Content)
		if err != nil {
			return fmt.Errorf("docstore: insert chunk %d: %w", c.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("docstore: commit: %w", err)
	}
	return nil
}

// Remove deletes a document and its chunks, returning the removed chunk IDs
// so the caller can delete the matching index entries.
func (s *Store) Remove(ctx context.Context, docID string) ([]string, error) {
	ids, err := s.ChunkIDs(ctx, docID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("docstore: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, docID); err != nil {
		return nil, fmt.Errorf("docstore: delete chunks: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, docID)
	if err != nil {
		return nil, fmt.Errorf("docstore: delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("docstore: rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("docstore: commit: %w", err)
	}
	return ids, nil
}

// ChunkIDs returns the chunk IDs belonging to a document, in sequence order.
func (s *Store) ChunkIDs(ctx context.Context, docID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM chunks WHERE document_id = ? ORDER BY seq ASC`, docID)
	if err != nil {
		return nil, fmt.Errorf("docstore: query chunk ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("docstore: scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: iterate chunk ids: %w", err)
	}
	return ids, nil
}

// List returns all stored documents ordered by ingestion time, newest first.
// Content is omitted to keep listings cheap.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, created_at FROM documents ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("docstore: query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var created int64
		if err := rows.Scan(&d.ID, &d.Source, &created); err != nil {
			return nil, fmt.Errorf("docstore: scan document: %w", err)
		}
		d.CreatedAt = time.Unix(created, 0)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: iterate documents: %w", err)
	}
	return docs, nil
}

// Get returns a single document by ID, including its content.
func (s *Store) Get(ctx context.Context, docID string) (Document, error) {
	var d Document
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, content, created_at FROM documents WHERE id = ?`, docID).
		Scan(&d.ID, &d.Source, &d.Content, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("docstore: query document: %w", err)
	}
	d.CreatedAt = time.Unix(created, 0)
	return d, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("docstore: count documents: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
