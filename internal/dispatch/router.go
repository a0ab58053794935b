// Package dispatch routes inbound updates: it resolves addressing, matches
// the text command grammar and the callback action grammar, mutates
// conversation state and keeps the single live panel message in sync.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk/internal/department"
	"github.com/opsdesk/opsdesk/internal/journal"
	"github.com/opsdesk/opsdesk/internal/panel"
	"github.com/opsdesk/opsdesk/internal/provider"
	"github.com/opsdesk/opsdesk/internal/state"
	"github.com/opsdesk/opsdesk/internal/store"
	"github.com/opsdesk/opsdesk/internal/telegram"
)

// Transport is the outbound messaging surface the router needs.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (int64, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Router dispatches one inbound update at a time. Handlers for different
// updates may run concurrently; state and store writes race last-writer-wins
// by design.
type Router struct {
	transport Transport
	store     *store.Store
	states    *state.Manager
	completer provider.Completer
	journal   *journal.Service
	rules     []rule
}

// rule is one entry of the ordered text command grammar, evaluated
// first-match-wins against the addressing-resolved text.
type rule struct {
	name string
	try  func(req *request) (string, bool)
}

// request carries one text command through the rule list.
type request struct {
	ctx    context.Context
	chatID int64
	conv   *state.Conversation
	target department.Department
	text   string
}

// NewRouter creates a router. The journal may be nil; journaling is
// best-effort and never affects dispatch.
func NewRouter(transport Transport, st *store.Store, states *state.Manager, completer provider.Completer, jnl *journal.Service) *Router {
	r := &Router{
		transport: transport,
		store:     st,
		states:    states,
		completer: completer,
		journal:   jnl,
	}
	r.rules = []rule{
		{"add_task", r.tryAddTask},
		{"add_fact", r.tryAddFact},
		{"close_task", r.tryCloseTask},
		{"view_summary", r.tryView("/summary", "summary", state.ScreenSummary)},
		{"view_tasks", r.tryView("/tasks", "tasks", state.ScreenTasks)},
		{"view_memory", r.tryView("/memory", "memory", state.ScreenMemory)},
		{"switch_department", r.trySwitch},
	}
	return r
}

// HandleUpdate processes one inbound update to completion. Malformed updates
// are dropped silently; no failure mode propagates to the caller.
func (r *Router) HandleUpdate(ctx context.Context, upd *telegram.Update) {
	if upd == nil {
		return
	}
	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, upd.CallbackQuery)
		return
	}

	msg := upd.Message
	if msg == nil {
		msg = upd.EditedMessage
	}
	chatID := msg.ChatID()
	text := strings.TrimSpace(msg.Body())
	if chatID == 0 || text == "" {
		return
	}
	r.handleMessage(ctx, chatID, text)
}

func (r *Router) handleMessage(ctx context.Context, chatID int64, text string) {
	trace := uuid.NewString()
	conv := r.states.Get(chatID)

	// Reset takes precedence over everything, then pending free-text capture
	// consumes the entire message; only after that is addressing resolved.
	if strings.EqualFold(text, "/start") {
		conv.ActiveDepartment = department.Default
		conv.Screen = state.ScreenHome
		conv.Awaiting = state.AwaitNone
		r.renderPanel(ctx, chatID, conv, conv.ActiveDepartment)
		r.saveState(chatID, conv)
		r.record(trace, chatID, "message", "reset", conv.ActiveDepartment, "panel reset")
		return
	}

	if conv.Awaiting != state.AwaitNone {
		outcome := r.capturePending(ctx, chatID, conv, text)
		r.record(trace, chatID, "message", "capture", conv.ActiveDepartment, outcome)
		return
	}

	target, cleaned := Resolve(text, conv.ActiveDepartment)
	req := &request{ctx: ctx, chatID: chatID, conv: conv, target: target, text: cleaned}
	for _, rl := range r.rules {
		if outcome, ok := rl.try(req); ok {
			r.record(trace, chatID, "message", rl.name, target, outcome)
			return
		}
	}

	outcome := r.fallback(ctx, chatID, target, cleaned)
	r.record(trace, chatID, "message", "completion", target, outcome)
}

// capturePending consumes the whole message as the pending task or fact body
// for the active department and re-renders the matching list view.
func (r *Router) capturePending(ctx context.Context, chatID int64, conv *state.Conversation, text string) string {
	mode := conv.Awaiting
	conv.Awaiting = state.AwaitNone

	var outcome string
	if mode == state.AwaitFact {
		pos, err := r.store.AddFact(conv.ActiveDepartment, text)
		if err != nil {
			slog.Error("Failed to save fact", "chat", chatID, "error", err)
			r.send(ctx, chatID, "⚠️ Could not save that, try again.")
			return "save failed"
		}
		conv.Screen = state.ScreenMemory
		outcome = fmt.Sprintf("fact %d", pos)
	} else {
		pos, err := r.store.AddTask(conv.ActiveDepartment, text)
		if err != nil {
			slog.Error("Failed to save task", "chat", chatID, "error", err)
			r.send(ctx, chatID, "⚠️ Could not save that, try again.")
			return "save failed"
		}
		conv.Screen = state.ScreenTasks
		outcome = fmt.Sprintf("task %d", pos)
	}
	r.renderPanel(ctx, chatID, conv, conv.ActiveDepartment)
	r.saveState(chatID, conv)
	return outcome
}

func (r *Router) tryAddTask(req *request) (string, bool) {
	body, ok := cutCommand(req.text, "+task")
	if !ok {
		return "", false
	}
	pos, err := r.store.AddTask(req.target, body)
	if err != nil {
		slog.Error("Failed to add task", "department", req.target, "error", err)
		r.send(req.ctx, req.chatID, "⚠️ Could not save that, try again.")
		return "save failed", true
	}
	r.send(req.ctx, req.chatID, fmt.Sprintf("✅ Task added to %s (#%d).\nOpen the panel → 📥 Tasks", req.target, pos))
	return fmt.Sprintf("task %d", pos), true
}

func (r *Router) tryAddFact(req *request) (string, bool) {
	body, ok := cutCommand(req.text, "+fact")
	if !ok {
		return "", false
	}
	pos, err := r.store.AddFact(req.target, body)
	if err != nil {
		slog.Error("Failed to add fact", "department", req.target, "error", err)
		r.send(req.ctx, req.chatID, "⚠️ Could not save that, try again.")
		return "save failed", true
	}
	r.send(req.ctx, req.chatID, fmt.Sprintf("✅ Fact saved to %s (#%d).\nOpen the panel → 🧠 Memory", req.target, pos))
	return fmt.Sprintf("fact %d", pos), true
}

func (r *Router) tryCloseTask(req *request) (string, bool) {
	lower := strings.ToLower(req.text)
	if !strings.HasPrefix(lower, "-done") {
		return "", false
	}
	fields := strings.Fields(req.text)
	if len(fields) < 2 {
		r.send(req.ctx, req.chatID, "Usage: -done N")
		return "usage error", true
	}
	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		r.send(req.ctx, req.chatID, "Usage: -done N")
		return "usage error", true
	}
	ok, info, err := r.store.CloseTask(req.target, pos)
	if err != nil {
		slog.Error("Failed to close task", "department", req.target, "error", err)
		r.send(req.ctx, req.chatID, "⚠️ Could not save that, try again.")
		return "save failed", true
	}
	if !ok {
		r.send(req.ctx, req.chatID, "⚠️ "+info)
		return "out of range", true
	}
	r.send(req.ctx, req.chatID, "✅ Done: "+info)
	return fmt.Sprintf("closed %d", pos), true
}

// tryView builds a rule matching a literal view keyword and re-rendering the
// corresponding screen for the resolved target department.
func (r *Router) tryView(slash, bare string, screen state.Screen) func(req *request) (string, bool) {
	return func(req *request) (string, bool) {
		lower := strings.ToLower(req.text)
		if lower != slash && lower != bare {
			return "", false
		}
		req.conv.Screen = screen
		r.renderPanel(req.ctx, req.chatID, req.conv, req.target)
		r.saveState(req.chatID, req.conv)
		return string(screen), true
	}
}

func (r *Router) trySwitch(req *request) (string, bool) {
	d, ok := department.Parse(req.text)
	if !ok {
		return "", false
	}
	req.conv.ActiveDepartment = d
	req.conv.Screen = state.ScreenHome
	req.conv.Awaiting = state.AwaitNone
	r.renderPanel(req.ctx, req.chatID, req.conv, d)
	r.saveState(req.chatID, req.conv)
	return "switched to " + string(d), true
}

// fallback forwards unmatched free text to the completion gateway with the
// target department's persona and record as context. Gateway unavailability
// degrades to a static reply enumerating commands; never retried.
func (r *Router) fallback(ctx context.Context, chatID int64, target department.Department, text string) string {
	rec := r.store.Load(target)
	recJSON, _ := json.Marshal(rec)
	system := department.Persona(target) + "\nOperating memory (JSON): " + string(recJSON)

	answer, err := r.completer.Complete(ctx, system, text)
	if err != nil {
		slog.Info("Completion unavailable", "department", target, "error", err)
		r.send(ctx, chatID, fmt.Sprintf(
			"⚠️ The completion service is unavailable right now.\nThe dispatcher still works. Mode: %s\n\n%s\nOr /start to open the panel.",
			target, panel.CommandHints,
		))
		return "unavailable"
	}
	r.send(ctx, chatID, answer)
	return "answered"
}

// handleCallback interprets an option-activation event. The originating
// event is acknowledged exactly once, whatever the outcome.
func (r *Router) handleCallback(ctx context.Context, cq *telegram.CallbackQuery) {
	trace := uuid.NewString()
	note, rule, dept, outcome := r.applyCallback(ctx, cq)
	if err := r.transport.AnswerCallback(ctx, cq.ID, note); err != nil {
		slog.Warn("Callback acknowledgment failed", "callback", cq.ID, "error", err)
	}
	r.record(trace, cq.Message.ChatID(), "callback", rule, dept, outcome)
}

func (r *Router) applyCallback(ctx context.Context, cq *telegram.CallbackQuery) (note, rule string, dept department.Department, outcome string) {
	chatID := cq.Message.ChatID()
	messageID := int64(0)
	if cq.Message != nil {
		messageID = cq.Message.MessageID
	}
	if chatID == 0 || messageID == 0 {
		return "No data", "malformed", "", "dropped"
	}

	conv := r.states.Get(chatID)
	// The activated message becomes the live panel.
	conv.PanelMessageID = messageID
	dept = conv.ActiveDepartment
	data := cq.Data

	switch {
	case strings.HasPrefix(data, "tab:"):
		d, ok := department.Parse(strings.TrimPrefix(data, "tab:"))
		if !ok {
			r.saveState(chatID, conv)
			return "Unknown department", "tab", dept, "rejected"
		}
		conv.ActiveDepartment = d
		conv.Screen = state.ScreenHome
		conv.Awaiting = state.AwaitNone
		r.renderPanel(ctx, chatID, conv, d)
		r.saveState(chatID, conv)
		return "Mode: " + string(d), "tab", d, "switched"

	case data == "view:tasks", data == "view:memory", data == "view:summary", data == "view:add":
		conv.Screen = map[string]state.Screen{
			"view:tasks":   state.ScreenTasks,
			"view:memory":  state.ScreenMemory,
			"view:summary": state.ScreenSummary,
			"view:add":     state.ScreenAdd,
		}[data]
		r.renderPanel(ctx, chatID, conv, dept)
		r.saveState(chatID, conv)
		return "", "view", dept, string(conv.Screen)

	case data == "add:task", data == "add:fact":
		conv.Screen = state.ScreenAdd
		if data == "add:fact" {
			conv.Awaiting = state.AwaitFact
		} else {
			conv.Awaiting = state.AwaitTask
		}
		prompt := panel.CapturePrompt(dept, conv.Awaiting)
		kb := panel.Keyboard(dept, state.ScreenAdd, r.store.Load(dept))
		r.upsertPanel(ctx, chatID, conv, prompt, kb)
		r.saveState(chatID, conv)
		return "Send the text", "await", dept, string(conv.Awaiting)

	case strings.HasPrefix(data, "done:"):
		pos, err := strconv.Atoi(strings.TrimPrefix(data, "done:"))
		if err != nil {
			r.saveState(chatID, conv)
			return "Bad task number", "close", dept, "rejected"
		}
		ok, info, err := r.store.CloseTask(dept, pos)
		if err != nil {
			slog.Error("Failed to close task", "department", dept, "error", err)
			r.saveState(chatID, conv)
			return "Could not save", "close", dept, "save failed"
		}
		conv.Screen = state.ScreenTasks
		r.renderPanel(ctx, chatID, conv, dept)
		r.saveState(chatID, conv)
		if !ok {
			return info, "close", dept, "out of range"
		}
		return "Done: " + info, "close", dept, fmt.Sprintf("closed %d", pos)

	case data == "back":
		conv.Screen = state.ScreenHome
		conv.Awaiting = state.AwaitNone
		r.renderPanel(ctx, chatID, conv, dept)
		r.saveState(chatID, conv)
		return "", "back", dept, "home"

	default:
		r.saveState(chatID, conv)
		return "", "unknown", dept, "ignored"
	}
}

// renderPanel renders the conversation's current screen for a department and
// upserts the live panel message.
func (r *Router) renderPanel(ctx context.Context, chatID int64, conv *state.Conversation, d department.Department) {
	text, kb := panel.Render(d, conv.Screen, r.store.Load(d))
	r.upsertPanel(ctx, chatID, conv, text, kb)
}

// upsertPanel edits the recorded panel message; when the edit fails or no
// panel exists yet, a new message is sent and its id replaces the stored
// reference. Transport failures are best-effort and never surface.
func (r *Router) upsertPanel(ctx context.Context, chatID int64, conv *state.Conversation, text string, kb *telegram.InlineKeyboardMarkup) {
	if conv.PanelMessageID != 0 {
		if err := r.transport.EditMessageText(ctx, chatID, conv.PanelMessageID, text, kb); err == nil {
			return
		}
	}
	id, err := r.transport.SendMessage(ctx, chatID, text, kb)
	if err != nil {
		slog.Warn("Panel send failed", "chat", chatID, "error", err)
		return
	}
	conv.PanelMessageID = id
}

func (r *Router) send(ctx context.Context, chatID int64, text string) {
	if _, err := r.transport.SendMessage(ctx, chatID, text, nil); err != nil {
		slog.Warn("Send failed", "chat", chatID, "error", err)
	}
}

func (r *Router) saveState(chatID int64, conv *state.Conversation) {
	if err := r.states.Save(chatID, conv); err != nil {
		slog.Error("Failed to save conversation state", "chat", chatID, "error", err)
	}
}

func (r *Router) record(trace string, chatID int64, kind, rule string, d department.Department, outcome string) {
	if r.journal == nil {
		return
	}
	err := r.journal.Record(journal.Entry{
		TraceID:    trace,
		ChatID:     chatID,
		Kind:       kind,
		Rule:       rule,
		Department: string(d),
		Outcome:    outcome,
	})
	if err != nil {
		slog.Warn("Journal write failed", "error", err)
	}
}

// cutCommand matches a case-insensitive command word followed by a colon and
// returns the trimmed body. Whitespace between word and colon is tolerated so
// that a stripped addressing marker ("+task @LOOK: x") leaves a valid command.
func cutCommand(s, word string) (string, bool) {
	if len(s) < len(word) || !strings.EqualFold(s[:len(word)], word) {
		return "", false
	}
	rest := strings.TrimLeft(s[len(word):], " \t")
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	return strings.TrimSpace(rest[1:]), true
}
