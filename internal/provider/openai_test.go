package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteWithoutCredentialIsUnavailable(t *testing.T) {
	g := NewOpenAIGateway("", "", "", 0.4)
	_, err := g.Complete(context.Background(), "sys", "user")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestCompleteReturnsAnswer(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  hello there  "}},
			},
		})
	}))
	defer srv.Close()

	g := NewOpenAIGateway("key", srv.URL, "test-model", 0.4)
	answer, err := g.Complete(context.Background(), "persona", "question")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "hello there" {
		t.Fatalf("answer = %q", answer)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotBody["model"] != "test-model" {
		t.Fatalf("model = %v", gotBody["model"])
	}
	msgs := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestCompleteFailureModesAreUniform(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-success status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
		}},
		{"unparsable payload", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"no choices", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}},
		{"empty answer", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{{"message": map[string]string{"content": "   "}}},
			})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			g := NewOpenAIGateway("key", srv.URL, "", 0)
			_, err := g.Complete(context.Background(), "sys", "user")
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("err = %v, want ErrUnavailable", err)
			}
		})
	}
}
