package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ChatServer is a fake OpenAI-compatible chat completions endpoint.
type ChatServer struct {
	*httptest.Server

	mu      sync.Mutex
	prompts []string
}

// NewChatServer answers every /chat/completions request with reply(prompt),
// where prompt is the content of the last message. The server is closed
// when the test ends.
func NewChatServer(t testing.TB, reply func(prompt string) string) *ChatServer {
	t.Helper()

	cs := &ChatServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		prompt := ""
		if n := len(req.Messages); n > 0 {
			prompt = messageText(req.Messages[n-1].Content)
		}

		cs.mu.Lock()
		cs.prompts = append(cs.prompts, prompt)
		cs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply(prompt)},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(cs.Close)
	return cs
}

// BaseURL returns the base URL clients should use, including the /v1 prefix.
func (cs *ChatServer) BaseURL() string {
	return cs.Server.URL + "/v1"
}

// Prompts returns the prompts received so far.
func (cs *ChatServer) Prompts() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string(nil), cs.prompts...)
}

// messageText flattens a string or multi-part message content.
func messageText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var parts []string
		for _, p := range c {
			if m, ok := p.(map[string]any); ok {
				if text, ok := m["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, "")
	default:
		return ""
	}
}
