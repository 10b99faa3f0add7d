// Package history persists completed chat turns in SQLite so sessions
// survive restarts. The in-memory ring in package memory is rebuilt from
// here when a session is resumed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Turn is one persisted exchange within a session.
type Turn struct {
	// ID is the row ID, assigned on insert.
	ID int64

	// Session identifies the chat session this turn belongs to.
	Session string

	// Query is the citizen's question.
	Query string

	// Answer is the reply that was given.
	Answer string

	// CreatedAt is when the turn completed.
	CreatedAt time.Time
}

// Store wraps a SQLite database holding chat history.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default history database location,
// ~/.smartseva/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("history: resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".smartseva")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("history: create data directory: %w", err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) the history database at path. SQLite allows a
// single writer; the pool is capped at one connection to avoid SQLITE_BUSY.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
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
CREATE TABLE IF NOT EXISTS turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session    TEXT NOT NULL,
	query      TEXT NOT NULL,
	answer     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session, id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Append records a completed turn for a session.
func (s *Store) Append(ctx context.Context, t Turn) error {
	at := t.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (session, query, answer, created_at) VALUES (?, ?, ?, ?)`,
		t.Session, t.Query, t.Answer, at.Unix())
	if err != nil {
		return fmt.Errorf("history: append turn: %w", err)
	}
	return nil
}

// Recent returns the last n turns of a session in chronological order,
// oldest first. n <= 0 returns all turns.
func (s *Store) Recent(ctx context.Context, session string, n int) ([]Turn, error) {
	query := `SELECT id, session, query, answer, created_at
FROM turns WHERE session = ? ORDER BY id DESC`
	args := []any{session}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var created int64
		if err := rows.Scan(&t.ID, &t.Session, &t.Query, &t.Answer, &created); err != nil {
			return nil, fmt.Errorf("history: scan turn: %w", err)
		}
		t.CreatedAt = time.Unix(created, 0)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate turns: %w", err)
	}

	// Query runs newest-first for the LIMIT; callers want oldest-first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Sessions returns the distinct session IDs with stored turns, most
// recently active first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session FROM turns GROUP BY session ORDER BY MAX(id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("history: query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("history: scan session: %w", err)
		}
		sessions = append(sessions, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes all turns of a session.
func (s *Store) Delete(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session = ?`, session); err != nil {
		return fmt.Errorf("history: delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
