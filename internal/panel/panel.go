// Package panel renders the single live panel message: screen text plus the
// inline option layout, as a pure function of department, screen and the
// department's knowledge record.
package panel

import (
	"fmt"
	"strings"

	"github.com/opsdesk/opsdesk/internal/department"
	"github.com/opsdesk/opsdesk/internal/state"
	"github.com/opsdesk/opsdesk/internal/store"
	"github.com/opsdesk/opsdesk/internal/telegram"
)

// Rendering caps keep panel text and option layouts bounded.
const (
	maxTaskLines    = 20
	maxCloseButtons = 8
	memoryTail      = 15
	summaryNotes    = 5
	summaryTasks    = 5
)

// CommandHints enumerates the text command surface, shown on the home screen
// and in fallback replies.
const CommandHints = "Quick commands:\n" +
	"• +task: ...\n" +
	"• +fact: ...\n" +
	"• -done N\n" +
	"Address another desk:\n" +
	"• +task @LOOK: ...\n" +
	"• +fact @MONEY: ..."

// Render produces the panel text and option layout for a screen.
func Render(d department.Department, screen state.Screen, rec *store.Record) (string, *telegram.InlineKeyboardMarkup) {
	switch screen {
	case state.ScreenTasks:
		return Tasks(d, rec), Keyboard(d, screen, rec)
	case state.ScreenMemory:
		return Memory(d, rec), Keyboard(d, screen, rec)
	case state.ScreenSummary:
		return Summary(d, rec), Keyboard(d, screen, rec)
	case state.ScreenAdd:
		return Add(d), Keyboard(d, screen, rec)
	default:
		return Home(d), Keyboard(d, state.ScreenHome, rec)
	}
}

// Home renders the greeting screen for the active department.
func Home(d department.Department) string {
	return fmt.Sprintf(
		"Mode: %s\n\nType plain text and I will answer as %s (when the completion service is available).\n\n%s",
		d, d, CommandHints,
	)
}

// Tasks enumerates the inbox. Every entry keeps its 1-based position but only
// open entries produce a line.
func Tasks(d department.Department, rec *store.Record) string {
	if len(rec.Inbox) == 0 {
		return fmt.Sprintf("📥 %s tasks: empty.\n\nAdd one: +task: ...", d)
	}

	lines := []string{fmt.Sprintf("📥 %s tasks (open):", d)}
	open := 0
	truncated := false
	for i, task := range rec.Inbox {
		if task.Status != store.StatusOpen {
			continue
		}
		open++
		if open > maxTaskLines {
			truncated = true
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, task.Text))
	}
	if open == 0 {
		lines = append(lines, "No open tasks.")
	}
	if truncated {
		lines = append(lines, "…more open tasks exist.")
	}
	lines = append(lines, "\nClose one: -done N")
	return strings.Join(lines, "\n")
}

// Memory shows the most recent notes in insertion order, most recent last.
func Memory(d department.Department, rec *store.Record) string {
	tail := rec.Notes
	if len(tail) > memoryTail {
		tail = tail[len(tail)-memoryTail:]
	}
	if len(tail) == 0 {
		return fmt.Sprintf("🧠 %s memory: nothing yet.\n\nAdd one: +fact: ...", d)
	}
	out := []string{fmt.Sprintf("🧠 %s memory (recent):", d)}
	for _, n := range tail {
		out = append(out, "• "+n)
	}
	return strings.Join(out, "\n")
}

// Summary shows the last notes and the first open tasks in list order.
func Summary(d department.Department, rec *store.Record) string {
	notes := rec.Notes
	if len(notes) > summaryNotes {
		notes = notes[len(notes)-summaryNotes:]
	}
	var openTasks []store.Task
	for _, task := range rec.Inbox {
		if task.Status == store.StatusOpen {
			openTasks = append(openTasks, task)
			if len(openTasks) == summaryTasks {
				break
			}
		}
	}

	out := []string{fmt.Sprintf("🧾 Summary: %s", d), ""}
	out = append(out, "🧠 Memory (recent):")
	if len(notes) == 0 {
		out = append(out, "• nothing yet")
	} else {
		for _, n := range notes {
			out = append(out, "• "+n)
		}
	}
	out = append(out, "", fmt.Sprintf("📥 Tasks (top %d):", summaryTasks))
	if len(openTasks) == 0 {
		out = append(out, "• nothing yet")
	} else {
		for i, task := range openTasks {
			out = append(out, fmt.Sprintf("%d) %s", i+1, task.Text))
		}
	}
	out = append(out, "", CommandHints)
	return strings.Join(out, "\n")
}

// Add prompts to choose between task and fact entry.
func Add(d department.Department) string {
	return fmt.Sprintf("What do you want to add to %s?", d)
}

// CapturePrompt asks for the free-text body once an entry mode is chosen.
func CapturePrompt(d department.Department, mode state.Awaiting) string {
	if mode == state.AwaitFact {
		return fmt.Sprintf("Send the fact for %s in your next message.", d)
	}
	return fmt.Sprintf("Send the task for %s in your next message.", d)
}

// Keyboard builds the option layout for a screen. The TASKS screen gets a
// close button per open task, the ADD screen swaps in entry-mode buttons.
func Keyboard(d department.Department, screen state.Screen, rec *store.Record) *telegram.InlineKeyboardMarkup {
	if screen == state.ScreenAdd {
		return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "➕ Task", CallbackData: "add:task"},
				{Text: "➕ Fact", CallbackData: "add:fact"},
			},
			{{Text: "⬅ Back", CallbackData: "back"}},
		}}
	}

	var rows [][]telegram.InlineKeyboardButton
	if screen == state.ScreenTasks {
		rows = append(rows, closeButtonRows(rec)...)
	}
	rows = append(rows, tabRows(d)...)
	rows = append(rows,
		[]telegram.InlineKeyboardButton{
			{Text: "📥 Tasks", CallbackData: "view:tasks"},
			{Text: "🧠 Memory", CallbackData: "view:memory"},
			{Text: "🧾 Summary", CallbackData: "view:summary"},
		},
		[]telegram.InlineKeyboardButton{
			{Text: "➕ Add", CallbackData: "view:add"},
		},
	)
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func tabRows(active department.Department) [][]telegram.InlineKeyboardButton {
	btn := func(d department.Department) telegram.InlineKeyboardButton {
		label := string(d)
		if d == active {
			label = "✅ " + label
		}
		return telegram.InlineKeyboardButton{Text: label, CallbackData: "tab:" + string(d)}
	}
	return [][]telegram.InlineKeyboardButton{
		{btn(department.Core), btn(department.Look), btn(department.Marketing)},
		{btn(department.Money), btn(department.Family), btn(department.Personal)},
	}
}

func closeButtonRows(rec *store.Record) [][]telegram.InlineKeyboardButton {
	var buttons []telegram.InlineKeyboardButton
	for i, task := range rec.Inbox {
		if task.Status != store.StatusOpen {
			continue
		}
		buttons = append(buttons, telegram.InlineKeyboardButton{
			Text:         fmt.Sprintf("✔ %d", i+1),
			CallbackData: fmt.Sprintf("done:%d", i+1),
		})
		if len(buttons) == maxCloseButtons {
			break
		}
	}
	var rows [][]telegram.InlineKeyboardButton
	for len(buttons) > 0 {
		n := 4
		if len(buttons) < n {
			n = len(buttons)
		}
		rows = append(rows, buttons[:n])
		buttons = buttons[n:]
	}
	return rows
}
