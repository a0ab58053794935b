// Package state persists per-conversation UI state: the active department,
// the panel screen, the pending-input mode and the live panel message.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/opsdesk/opsdesk/internal/department"
)

// Screen identifies which view the panel currently renders.
type Screen string

const (
	ScreenHome    Screen = "HOME"
	ScreenTasks   Screen = "TASKS"
	ScreenMemory  Screen = "MEMORY"
	ScreenSummary Screen = "SUMMARY"
	ScreenAdd     Screen = "ADD"
)

// Awaiting marks that the next free-text message is captured as a task or
// fact body instead of being parsed as a command.
type Awaiting string

const (
	AwaitNone Awaiting = ""
	AwaitTask Awaiting = "TASK"
	AwaitFact Awaiting = "FACT"
)

// Conversation is the durable state of one chat. It is created with default
// values on first interaction and never destroyed.
type Conversation struct {
	ActiveDepartment department.Department `json:"active_department"`
	Screen           Screen                `json:"screen"`
	Awaiting         Awaiting              `json:"awaiting,omitempty"`
	PanelMessageID   int64                 `json:"panel_message_id,omitempty"`
}

// Manager loads and saves conversation records, one JSON file per chat id.
// There is no cross-request locking: concurrent handlers for the same chat
// race read-modify-write, last writer wins.
type Manager struct {
	dir string
}

// NewManager creates a manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Get loads the conversation for a chat, returning defaults when no record
// exists or the stored record cannot be decoded.
func (m *Manager) Get(chatID int64) *Conversation {
	conv := defaultConversation()
	raw, err := os.ReadFile(m.path(chatID))
	if err != nil {
		return conv
	}
	if err := json.Unmarshal(raw, conv); err != nil {
		return defaultConversation()
	}
	if !department.Valid(conv.ActiveDepartment) {
		conv.ActiveDepartment = department.Default
	}
	if conv.Screen == "" {
		conv.Screen = ScreenHome
	}
	return conv
}

// Save persists the conversation record for a chat.
func (m *Manager) Save(chatID int64, conv *Conversation) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	if err := os.WriteFile(m.path(chatID), data, 0644); err != nil {
		return fmt.Errorf("write conversation: %w", err)
	}
	return nil
}

func (m *Manager) path(chatID int64) string {
	return filepath.Join(m.dir, strconv.FormatInt(chatID, 10)+".json")
}

func defaultConversation() *Conversation {
	return &Conversation{
		ActiveDepartment: department.Default,
		Screen:           ScreenHome,
		Awaiting:         AwaitNone,
	}
}
