package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opsdesk/opsdesk/internal/department"
)

func TestGetReturnsDefaultsForNewChat(t *testing.T) {
	m := NewManager(t.TempDir())
	conv := m.Get(42)
	if conv.ActiveDepartment != department.Default {
		t.Fatalf("active department = %s, want %s", conv.ActiveDepartment, department.Default)
	}
	if conv.Screen != ScreenHome || conv.Awaiting != AwaitNone || conv.PanelMessageID != 0 {
		t.Fatalf("unexpected defaults: %+v", conv)
	}
}

func TestSaveThenGetRoundTrip(t *testing.T) {
	m := NewManager(t.TempDir())
	conv := m.Get(7)
	conv.ActiveDepartment = department.Money
	conv.Screen = ScreenTasks
	conv.Awaiting = AwaitFact
	conv.PanelMessageID = 991
	if err := m.Save(7, conv); err != nil {
		t.Fatal(err)
	}
	got := m.Get(7)
	if got.ActiveDepartment != department.Money || got.Screen != ScreenTasks {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if got.Awaiting != AwaitFact || got.PanelMessageID != 991 {
		t.Fatalf("round trip lost fields: %+v", got)
	}
}

func TestGetRecoversFromCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	if err := os.WriteFile(filepath.Join(dir, "9.json"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	conv := m.Get(9)
	if conv.ActiveDepartment != department.Default || conv.Screen != ScreenHome {
		t.Fatalf("corrupt record not normalized: %+v", conv)
	}
}

func TestGetNormalizesUnknownDepartment(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	data := `{"active_department":"LEGAL","screen":""}`
	if err := os.WriteFile(filepath.Join(dir, "5.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	conv := m.Get(5)
	if conv.ActiveDepartment != department.Default {
		t.Fatalf("unknown department not reset: %s", conv.ActiveDepartment)
	}
	if conv.Screen != ScreenHome {
		t.Fatalf("empty screen not reset: %q", conv.Screen)
	}
}
