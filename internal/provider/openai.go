package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIGateway calls an OpenAI-compatible chat completions endpoint. Every
// failure mode collapses into ErrUnavailable; the call is never retried.
type OpenAIGateway struct {
	apiKey      string
	apiBase     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewOpenAIGateway creates a gateway. An empty apiKey yields a gateway that
// reports unavailability without making network calls.
func NewOpenAIGateway(apiKey, apiBase, model string, temperature float64) *OpenAIGateway {
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIGateway{
		apiKey:      apiKey,
		apiBase:     strings.TrimSuffix(apiBase, "/"),
		model:       model,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Complete sends a single completion request and returns the answer text.
func (g *OpenAIGateway) Complete(ctx context.Context, system, user string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: no credential configured", ErrUnavailable)
	}

	body := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": g.temperature,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiBase+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: execute request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", ErrUnavailable, err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrUnavailable)
	}

	answer := strings.TrimSpace(apiResp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", ErrUnavailable)
	}
	return answer, nil
}
