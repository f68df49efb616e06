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

func TestMockClient(t *testing.T) {
	t.Run("returns configured text", func(t *testing.T) {
		client := NewMockClient()
		client.ResponseText = "hello"

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "hi"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Content != "hello" || !result.Success {
			t.Errorf("unexpected result: %+v", result)
		}
		if client.RequestCount() != 1 {
			t.Errorf("RequestCount() = %d", client.RequestCount())
		}
	})

	t.Run("structured response is validated", func(t *testing.T) {
		client := NewMockClient()
		client.ResponseJSON = json.RawMessage(`{"days":["Day 1","Day 2"]}`)

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "hi"}},
			ResponseFormat: testResponseFormat(),
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if string(result.ParsedJSON) != `{"days":["Day 1","Day 2"]}` {
			t.Errorf("ParsedJSON = %s", result.ParsedJSON)
		}
	})

	t.Run("response sequence drives repair", func(t *testing.T) {
		client := NewMockClient()
		client.Responses = []string{"garbage", `{"days":[]}`}

		result, err := client.Chat(context.Background(), &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "hi"}},
			ResponseFormat: testResponseFormat(),
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if client.RequestCount() != 2 {
			t.Errorf("RequestCount() = %d, want 2", client.RequestCount())
		}
		if string(result.ParsedJSON) != `{"days":[]}` {
			t.Errorf("ParsedJSON = %s", result.ParsedJSON)
		}
		last := client.LastRequest()
		if len(last.Messages) != 3 || last.Messages[1].Role != "assistant" {
			t.Errorf("repair request should append assistant and user turns, got %d messages", len(last.Messages))
		}
	})

	t.Run("fails when configured", func(t *testing.T) {
		client := NewMockClient()
		client.FailAfter = 1

		if _, err := client.Chat(context.Background(), &ChatRequest{}); err != nil {
			t.Fatalf("first request should succeed: %v", err)
		}
		result, err := client.Chat(context.Background(), &ChatRequest{})
		if err == nil {
			t.Fatal("second request should fail")
		}
		if result.ErrorType != "mock_failure" {
			t.Errorf("ErrorType = %q", result.ErrorType)
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		client := NewMockClient()
		client.Latency = time.Second
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Chat(ctx, &ChatRequest{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestOpenAIClient_Chat(t *testing.T) {
	var gotFormat atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if rf, ok := body["response_format"].(map[string]any); ok && rf["type"] == "json_schema" {
			gotFormat.Store(true)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4.1-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"days\":[\"Day 1\"]}"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 6, "total_tokens": 18}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/",
	})
	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "You parse timetables."},
			{Role: "user", Content: "Day 1"},
		},
		ResponseFormat: testResponseFormat(),
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !gotFormat.Load() {
		t.Error("request should carry a json_schema response format")
	}
	if string(result.ParsedJSON) != `{"days":["Day 1"]}` {
		t.Errorf("ParsedJSON = %s", result.ParsedJSON)
	}
	if result.Provider != OpenAIName || result.TotalTokens != 18 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestOpenAIClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{
		APIKey:     "k",
		BaseURL:    server.URL + "/",
		MaxRetries: 1,
	})
	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows initial burst", func(t *testing.T) {
		limiter := NewRateLimiter(600)

		start := time.Now()
		for i := 0; i < 5; i++ {
			if err := limiter.Wait(context.Background()); err != nil {
				t.Fatalf("request %d failed: %v", i, err)
			}
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("took too long: %v", elapsed)
		}
	})

	t.Run("try consume drains", func(t *testing.T) {
		limiter := NewRateLimiter(2)
		if !limiter.TryConsume() || !limiter.TryConsume() {
			t.Fatal("initial tokens should be available")
		}
		if limiter.TryConsume() {
			t.Error("bucket should be empty")
		}
	})

	t.Run("status", func(t *testing.T) {
		status := NewRateLimiter(60).Status()
		if status.TokensLimit != 60 {
			t.Errorf("TokensLimit = %d, want 60", status.TokensLimit)
		}
		if status.TokensAvailable <= 0 {
			t.Error("expected positive tokens available")
		}
	})

	t.Run("record 429 drains tokens", func(t *testing.T) {
		limiter := NewRateLimiter(60)
		limiter.Record429(time.Second)

		status := limiter.Status()
		if status.Last429Time.IsZero() {
			t.Error("Last429Time should be set")
		}
		if status.TokensAvailable != 0 {
			t.Errorf("TokensAvailable = %d, want 0", status.TokensAvailable)
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		limiter := NewRateLimiter(1)
		limiter.Wait(context.Background())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := limiter.Wait(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("concurrent requests", func(t *testing.T) {
		limiter := NewRateLimiter(6000)

		var wg sync.WaitGroup
		var failures atomic.Int32
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.Wait(context.Background()); err != nil {
					failures.Add(1)
				}
			}()
		}
		wg.Wait()

		if failures.Load() > 0 {
			t.Errorf("had %d errors", failures.Load())
		}
		if got := limiter.Status().TotalConsumed; got != 10 {
			t.Errorf("TotalConsumed = %d, want 10", got)
		}
	})
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Errorf("parseRetryAfter(3) = %s", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("parseRetryAfter(\"\") = %s", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("parseRetryAfter(soon) = %s", got)
	}
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 {
		t.Errorf("parseRetryAfter(date) = %s", got)
	}
}
