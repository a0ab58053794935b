// Package store persists one knowledge record per department: an append-only
// note list and a status-tracked task inbox, kept as JSON files on disk.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk/internal/department"
)

// Task status values.
const (
	StatusOpen = "open"
	StatusDone = "done"
)

// Task is one inbox entry. Its externally visible identifier is its 1-based
// position in the inbox; closing mutates in place so positions never shift.
type Task struct {
	Text      string `json:"text"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	DoneAt    string `json:"done_at,omitempty"`
}

// Record is the knowledge record owned by a single department.
type Record struct {
	Notes []string `json:"notes"`
	Inbox []Task   `json:"inbox"`
}

// Store reads and writes department records under a directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Bootstrap creates the storage directory and an empty record file for every
// department that does not have one yet.
func (s *Store) Bootstrap() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	for _, d := range department.All {
		path := s.recordPath(d)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := s.Save(d, &Record{Notes: []string{}, Inbox: []Task{}}); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the record for a department. Malformed, missing or partially
// shaped data is normalized to empty sequences; Load never fails.
func (s *Store) Load(d department.Department) *Record {
	raw, err := os.ReadFile(s.recordPath(d))
	if err != nil {
		return &Record{Notes: []string{}, Inbox: []Task{}}
	}
	return normalize(raw)
}

// normalize is the single shape-validation step at the store boundary. Each
// field that cannot be decoded degrades to an empty sequence independently.
func normalize(raw []byte) *Record {
	rec := &Record{Notes: []string{}, Inbox: []Task{}}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rec
	}
	if f, ok := fields["notes"]; ok {
		var notes []string
		if err := json.Unmarshal(f, &notes); err == nil && notes != nil {
			rec.Notes = notes
		}
	}
	if f, ok := fields["inbox"]; ok {
		var inbox []Task
		if err := json.Unmarshal(f, &inbox); err == nil && inbox != nil {
			rec.Inbox = inbox
		}
	}
	return rec
}

// Save writes the full record for a department.
func (s *Store) Save(d department.Department, rec *Record) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(s.recordPath(d), data, 0644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// AddTask appends an open task and returns its 1-based position.
func (s *Store) AddTask(d department.Department, text string) (int, error) {
	rec := s.Load(d)
	rec.Inbox = append(rec.Inbox, Task{
		Text:      text,
		Status:    StatusOpen,
		CreatedAt: nowUTC(),
	})
	if err := s.Save(d, rec); err != nil {
		return 0, err
	}
	return len(rec.Inbox), nil
}

// CloseTask marks the task at the given 1-based position done. Closing an
// already-closed task succeeds and leaves its done timestamp unchanged.
// Out-of-range positions return ok=false with a human-readable reason.
func (s *Store) CloseTask(d department.Department, pos int) (bool, string, error) {
	rec := s.Load(d)
	if pos < 1 || pos > len(rec.Inbox) {
		return false, "No task with that number.", nil
	}
	task := &rec.Inbox[pos-1]
	if task.Status == StatusDone {
		return true, task.Text, nil
	}
	task.Status = StatusDone
	task.DoneAt = nowUTC()
	if err := s.Save(d, rec); err != nil {
		return false, "", err
	}
	return true, task.Text, nil
}

// AddFact appends a note and returns its 1-based position.
func (s *Store) AddFact(d department.Department, text string) (int, error) {
	rec := s.Load(d)
	rec.Notes = append(rec.Notes, text)
	if err := s.Save(d, rec); err != nil {
		return 0, err
	}
	return len(rec.Notes), nil
}

func (s *Store) recordPath(d department.Department) string {
	name := strings.ToLower(string(d))
	return filepath.Join(s.dir, filepath.Base(name)+".json")
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
