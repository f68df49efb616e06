package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func openRouterReply(content string) map[string]any {
	return map[string]any{
		"id":    "test-id",
		"model": "openai/gpt-4.1-mini",
		"choices": []map[string]any{
			{
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": 8,
			"total_tokens":      18,
			"cost":              0.0002,
		},
	}
}

func TestOpenRouterClient_Chat(t *testing.T) {
	t.Run("successful chat", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}
			if r.Header.Get("X-Title") == "" {
				t.Error("missing X-Title header")
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(openRouterReply("Hello! How can I help you?"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !result.Success {
			t.Error("expected Success = true")
		}
		if result.Content != "Hello! How can I help you?" {
			t.Errorf("Content = %q", result.Content)
		}
		if result.TotalTokens != 18 {
			t.Errorf("TotalTokens = %d, want 18", result.TotalTokens)
		}
		if result.CostUSD != 0.0002 {
			t.Errorf("CostUSD = %f", result.CostUSD)
		}
		if result.Attempts != 1 {
			t.Errorf("Attempts = %d, want 1", result.Attempts)
		}
	})

	t.Run("retries server errors with a nonce", func(t *testing.T) {
		var calls atomic.Int32
		var mu sync.Mutex
		var seen []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req openRouterRequest
			json.NewDecoder(r.Body).Decode(&req)
			content, _ := req.Messages[len(req.Messages)-1].Content.(string)
			mu.Lock()
			seen = append(seen, content)
			mu.Unlock()

			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("upstream"))
				return
			}
			json.NewEncoder(w).Encode(openRouterReply("ok"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:     "k",
			BaseURL:    server.URL,
			RetryDelay: 5 * time.Millisecond,
		})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Attempts != 3 {
			t.Errorf("Attempts = %d, want 3", result.Attempts)
		}
		if len(seen) != 3 {
			t.Fatalf("server saw %d requests, want 3", len(seen))
		}

		tests := []struct {
			content string
			label   string
		}{
			{seen[0], ""},
			{seen[1], "retry_1_id"},
			{seen[2], "retry_2_id"},
		}
		for i, tt := range tests {
			if !strings.HasPrefix(tt.content, "Hello") {
				t.Errorf("request %d lost the message: %q", i+1, tt.content)
			}
			if tt.label == "" {
				if strings.Contains(tt.content, "retry_") {
					t.Errorf("first request carries a nonce: %q", tt.content)
				}
				continue
			}
			if !strings.Contains(tt.content, tt.label) || strings.Count(tt.content, "<!--") != 1 {
				t.Errorf("request %d = %q, want exactly one %s nonce", i+1, tt.content, tt.label)
			}
		}
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"bad key"}`))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: server.URL, RetryDelay: time.Millisecond})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
		if result.Success || result.ErrorType != "http_error" {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("rate limit surfaces RateLimitError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: server.URL, MaxRetries: 1})
		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "Hello"}},
		})
		var rle *RateLimitError
		if !errors.As(err, &rle) {
			t.Fatalf("expected RateLimitError, got %v", err)
		}
		if rle.RetryAfter != time.Second {
			t.Errorf("RetryAfter = %s", rle.RetryAfter)
		}
	})

	t.Run("structured output repairs invalid reply", func(t *testing.T) {
		var calls atomic.Int32
		var sawRepair atomic.Bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req openRouterRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.ResponseFormat != nil {
				t.Error("anthropic models should not receive a native response format")
			}
			if calls.Add(1) == 1 {
				json.NewEncoder(w).Encode(openRouterReply(`{"days": "Day 1"}`))
				return
			}
			last, _ := req.Messages[len(req.Messages)-1].Content.(string)
			sawRepair.Store(strings.Contains(last, "Validation issue"))
			json.NewEncoder(w).Encode(openRouterReply("```json\n{\"days\": [\"Day 1\"]}\n```"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{
			APIKey:       "k",
			BaseURL:      server.URL,
			DefaultModel: "anthropic/claude-sonnet-4",
		})
		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "parse"}},
			ResponseFormat: testResponseFormat(),
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !sawRepair.Load() {
			t.Error("second request should carry the repair prompt")
		}
		if string(result.ParsedJSON) != `{"days":["Day 1"]}` {
			t.Errorf("ParsedJSON = %s", result.ParsedJSON)
		}
	})

	t.Run("structured output gives up after repairs", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			json.NewEncoder(w).Encode(openRouterReply("not json at all"))
		}))
		defer server.Close()

		client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k", BaseURL: server.URL, DefaultModel: "openai/gpt-4.1"})
		_, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "parse"}},
			ResponseFormat: testResponseFormat(),
		})
		if !errors.Is(err, ErrStructuredOutput) {
			t.Fatalf("expected ErrStructuredOutput, got %v", err)
		}
		if got := calls.Load(); got != maxStructuredRepairAttempts+1 {
			t.Errorf("calls = %d, want %d", got, maxStructuredRepairAttempts+1)
		}
	})
}

func TestOpenRouterClient_Config(t *testing.T) {
	client := NewOpenRouterClient(OpenRouterConfig{APIKey: "k"})
	if client.Name() != OpenRouterName {
		t.Errorf("Name() = %q", client.Name())
	}
	if client.baseURL != OpenRouterBaseURL {
		t.Errorf("baseURL = %q", client.baseURL)
	}
	if client.Model() != "anthropic/claude-sonnet-4" {
		t.Errorf("Model() = %q", client.Model())
	}
	if client.maxRetries != 3 || client.retryDelay != time.Second || client.rpm != 60 {
		t.Errorf("unexpected defaults: retries=%d delay=%s rpm=%f", client.maxRetries, client.retryDelay, client.rpm)
	}
}

func testResponseFormat() *ResponseFormat {
	return &ResponseFormat{
		Type: "json_schema",
		JSONSchema: json.RawMessage(`{
			"name": "test",
			"strict": true,
			"schema": {
				"type": "object",
				"required": ["days"],
				"properties": {"days": {"type": "array", "items": {"type": "string"}}}
			}
		}`),
	}
}
