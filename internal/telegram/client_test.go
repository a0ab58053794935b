package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessageReturnsMessageID(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 123},
		})
	}))
	defer srv.Close()

	c := NewClientWithBase("TOKEN", srv.URL)
	id, err := c.SendMessage(context.Background(), 42, "hello", &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{{Text: "ok", CallbackData: "x"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != 123 {
		t.Fatalf("message id = %d, want 123", id)
	}
	if gotPath != "/botTOKEN/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotPayload["chat_id"].(float64) != 42 || gotPayload["text"] != "hello" {
		t.Fatalf("unexpected payload: %+v", gotPayload)
	}
	if _, ok := gotPayload["reply_markup"]; !ok {
		t.Fatal("reply_markup not sent")
	}
}

func TestEditMessageTextReportsAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"description": "message to edit not found",
		})
	}))
	defer srv.Close()

	c := NewClientWithBase("TOKEN", srv.URL)
	err := c.EditMessageText(context.Background(), 42, 9, "updated", nil)
	if err == nil {
		t.Fatal("expected error for failed edit")
	}
}

func TestAnswerCallbackOmitsEmptyText(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": true})
	}))
	defer srv.Close()

	c := NewClientWithBase("TOKEN", srv.URL)
	if err := c.AnswerCallback(context.Background(), "cb1", ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := gotPayload["text"]; ok {
		t.Fatalf("empty text should be omitted: %+v", gotPayload)
	}
	if gotPayload["callback_query_id"] != "cb1" {
		t.Fatalf("unexpected payload: %+v", gotPayload)
	}
}

func TestMessageHelpers(t *testing.T) {
	var m *Message
	if m.Body() != "" || m.ChatID() != 0 {
		t.Fatal("nil message helpers should return zero values")
	}
	m = &Message{Caption: "cap", Chat: &Chat{ID: 5}}
	if m.Body() != "cap" || m.ChatID() != 5 {
		t.Fatalf("helpers = %q, %d", m.Body(), m.ChatID())
	}
	m.Text = "txt"
	if m.Body() != "txt" {
		t.Fatalf("text should win over caption, got %q", m.Body())
	}
}
