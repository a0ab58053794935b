package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opsdesk/opsdesk/internal/department"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir())
}

func TestLoadMissingFileReturnsEmptyRecord(t *testing.T) {
	s := newTestStore(t)
	rec := s.Load(department.Money)
	if rec.Notes == nil || rec.Inbox == nil {
		t.Fatalf("expected normalized empty record, got %+v", rec)
	}
	if len(rec.Notes) != 0 || len(rec.Inbox) != 0 {
		t.Fatalf("expected empty record, got %+v", rec)
	}
}

func TestLoadNormalizesMalformedData(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", "not json at all"},
		{"not an object", `[1,2,3]`},
		{"wrong field types", `{"notes":"oops","inbox":42}`},
		{"null fields", `{"notes":null,"inbox":null}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			s := New(dir)
			path := filepath.Join(dir, "core.json")
			if err := os.WriteFile(path, []byte(tc.data), 0644); err != nil {
				t.Fatal(err)
			}
			rec := s.Load(department.Core)
			if rec.Notes == nil || len(rec.Notes) != 0 {
				t.Fatalf("notes not normalized: %+v", rec.Notes)
			}
			if rec.Inbox == nil || len(rec.Inbox) != 0 {
				t.Fatalf("inbox not normalized: %+v", rec.Inbox)
			}
		})
	}
}

func TestLoadKeepsValidFieldWhenOtherIsMalformed(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	data := `{"notes":["keep me"],"inbox":"broken"}`
	if err := os.WriteFile(filepath.Join(dir, "look.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	rec := s.Load(department.Look)
	if len(rec.Notes) != 1 || rec.Notes[0] != "keep me" {
		t.Fatalf("valid notes lost: %+v", rec.Notes)
	}
	if len(rec.Inbox) != 0 {
		t.Fatalf("malformed inbox not normalized: %+v", rec.Inbox)
	}
}

func TestAddTaskAppendsOpenTask(t *testing.T) {
	s := newTestStore(t)
	for i, text := range []string{"first", "second", "third"} {
		pos, err := s.AddTask(department.Core, text)
		if err != nil {
			t.Fatal(err)
		}
		if pos != i+1 {
			t.Fatalf("AddTask returned position %d, want %d", pos, i+1)
		}
	}
	rec := s.Load(department.Core)
	if len(rec.Inbox) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(rec.Inbox))
	}
	last := rec.Inbox[2]
	if last.Text != "third" || last.Status != StatusOpen || last.CreatedAt == "" {
		t.Fatalf("unexpected task: %+v", last)
	}
}

func TestCloseTaskOutOfRangeDoesNotMutate(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddTask(department.Money, "pay rent"); err != nil {
		t.Fatal(err)
	}
	for _, pos := range []int{0, -1, 2, 100} {
		ok, reason, err := s.CloseTask(department.Money, pos)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatalf("CloseTask(%d) succeeded, want failure", pos)
		}
		if reason == "" {
			t.Fatalf("CloseTask(%d) returned empty reason", pos)
		}
	}
	rec := s.Load(department.Money)
	if rec.Inbox[0].Status != StatusOpen {
		t.Fatalf("record mutated by out-of-range close: %+v", rec.Inbox[0])
	}
}

func TestCloseTaskMarksDoneAndIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddTask(department.Family, "call school"); err != nil {
		t.Fatal(err)
	}
	ok, text, err := s.CloseTask(department.Family, 1)
	if err != nil || !ok || text != "call school" {
		t.Fatalf("CloseTask = %v, %q, %v", ok, text, err)
	}
	first := s.Load(department.Family).Inbox[0]
	if first.Status != StatusDone || first.DoneAt == "" {
		t.Fatalf("task not closed: %+v", first)
	}

	// Second close succeeds and does not touch done_at.
	ok, text, err = s.CloseTask(department.Family, 1)
	if err != nil || !ok || text != "call school" {
		t.Fatalf("second CloseTask = %v, %q, %v", ok, text, err)
	}
	second := s.Load(department.Family).Inbox[0]
	if second.DoneAt != first.DoneAt {
		t.Fatalf("done_at changed on repeat close: %q -> %q", first.DoneAt, second.DoneAt)
	}
}

func TestCloseTaskKeepsPositionsStable(t *testing.T) {
	s := newTestStore(t)
	for _, text := range []string{"a", "b", "c"} {
		if _, err := s.AddTask(department.Core, text); err != nil {
			t.Fatal(err)
		}
	}
	if ok, _, err := s.CloseTask(department.Core, 2); err != nil || !ok {
		t.Fatalf("close failed: %v", err)
	}
	rec := s.Load(department.Core)
	if len(rec.Inbox) != 3 {
		t.Fatalf("closing removed a task: %d entries", len(rec.Inbox))
	}
	if rec.Inbox[2].Text != "c" || rec.Inbox[2].Status != StatusOpen {
		t.Fatalf("position 3 shifted: %+v", rec.Inbox[2])
	}
}

func TestAddFactAppendsNote(t *testing.T) {
	s := newTestStore(t)
	pos, err := s.AddFact(department.Look, "clients prefer evenings")
	if err != nil {
		t.Fatal(err)
	}
	if pos != 1 {
		t.Fatalf("AddFact position = %d, want 1", pos)
	}
	rec := s.Load(department.Look)
	if len(rec.Notes) != 1 || rec.Notes[0] != "clients prefer evenings" {
		t.Fatalf("unexpected notes: %+v", rec.Notes)
	}
}

func TestBootstrapCreatesAllRecords(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := s.Bootstrap(); err != nil {
		t.Fatal(err)
	}
	for _, d := range department.All {
		name := strings.ToLower(string(d)) + ".json"
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("record for %s missing: %v", d, err)
		}
	}
	// Bootstrap must not clobber existing data.
	if _, err := s.AddFact(department.Core, "note"); err != nil {
		t.Fatal(err)
	}
	if err := s.Bootstrap(); err != nil {
		t.Fatal(err)
	}
	if len(s.Load(department.Core).Notes) != 1 {
		t.Fatal("bootstrap overwrote an existing record")
	}
}
