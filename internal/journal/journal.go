// Package journal records each handled update and its disposition in a
// sqlite database. It is purely observational: the dispatcher writes to it
// best-effort and never reads it back.
package journal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS journal (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trace_id TEXT NOT NULL,
	chat_id INTEGER NOT NULL,
	kind TEXT NOT NULL,
	rule TEXT NOT NULL,
	department TEXT,
	outcome TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_journal_chat ON journal(chat_id);
CREATE INDEX IF NOT EXISTS idx_journal_trace ON journal(trace_id);
`

// Entry describes one handled update.
type Entry struct {
	TraceID    string
	ChatID     int64
	Kind       string // "message" or "callback"
	Rule       string // grammar rule or action tag that matched
	Department string
	Outcome    string
}

// Service writes journal entries.
type Service struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the journal database at path.
func Open(path string) (*Service, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Service{db: db}, nil
}

// Record inserts one entry.
func (s *Service) Record(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO journal (trace_id, chat_id, kind, rule, department, outcome) VALUES (?, ?, ?, ?, ?, ?)`,
		e.TraceID, e.ChatID, e.Kind, e.Rule, e.Department, e.Outcome,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// Count returns the number of recorded entries.
func (s *Service) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM journal`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}

// Recent returns the latest n entries, newest first.
func (s *Service) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT trace_id, chat_id, kind, rule, department, outcome FROM journal ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.TraceID, &e.ChatID, &e.Kind, &e.Rule, &e.Department, &e.Outcome); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *Service) Close() error {
	return s.db.Close()
}
