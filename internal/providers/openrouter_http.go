package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

// doRequest posts to OpenRouter with retries. It returns the number of attempts made.
func (c *OpenRouterClient) doRequest(ctx context.Context, path string, orReq *openRouterRequest) (*openRouterResponse, int, error) {
	var (
		orResp   *openRouterResponse
		attempts int
	)

	err := retry.Do(
		func() error {
			attempts++
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			bodyBytes, err := json.Marshal(orReq)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to marshal request: %w", err))
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("HTTP-Referer", "https://github.com/jackzampolin/timetable")
			req.Header.Set("X-Title", "Timetable")

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			respBody, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
				c.limiter.Record429(retryAfter)
				return &RateLimitError{
					Message:    fmt.Sprintf("OpenRouter rate limited: %s", strings.TrimSpace(string(respBody))),
					RetryAfter: retryAfter,
					StatusCode: resp.StatusCode,
				}
			}
			if shouldRetry(resp.StatusCode) {
				return fmt.Errorf("OpenRouter error (status %d): %s", resp.StatusCode, string(respBody))
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("OpenRouter error (status %d): %s", resp.StatusCode, string(respBody)))
			}

			var parsed openRouterResponse
			if err := json.Unmarshal(respBody, &parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to unmarshal response: %w", err))
			}
			if retryable, err := retryableResponse(&parsed); err != nil {
				if retryable {
					return err
				}
				return retry.Unrecoverable(err)
			}
			orResp = &parsed
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(10*time.Second),
		retry.MaxJitter(c.retryDelay/2),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(_ uint, _ error) {
			injectNonce(orReq, attempts)
		}),
	)
	if err != nil {
		return nil, attempts, err
	}
	return orResp, attempts, nil
}

// shouldRetry returns true for status codes that should be retried.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case 413: // Payload Too Large - retry with nonce
		return true
	case 422: // Unprocessable Entity - retry with nonce
		return true
	default:
		return statusCode >= 500
	}
}

// retryableResponse inspects a 200 OK body for API-level errors. It returns a nil
// error when the response is usable.
func retryableResponse(resp *openRouterResponse) (bool, error) {
	if resp.Error != nil {
		code := fmt.Sprintf("%v", resp.Error.Code)
		switch code {
		case "overloaded", "rate_limit_exceeded", "503", "502", "500":
			return true, fmt.Errorf("OpenRouter API error (retryable): %s", resp.Error.Message)
		}
		return false, fmt.Errorf("OpenRouter API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return true, fmt.Errorf("empty choices in response (model=%s, id=%s)", resp.Model, resp.ID)
	}
	return false, nil
}

// nonceComment matches a nonce left by an earlier retry at the end of a message.
var nonceComment = regexp.MustCompile(`\n<!-- retry_\d+_id: [0-9a-f-]+ -->$`)

// injectNonce replaces the retry comment on the last user message so a retried request
// is not served from a poisoned upstream cache. Retries count from 1.
func injectNonce(req *openRouterRequest, n int) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role != "user" {
			continue
		}
		if content, ok := req.Messages[i].Content.(string); ok {
			content = nonceComment.ReplaceAllString(content, "")
			nonce := uuid.New().String()[:16]
			req.Messages[i].Content = content + fmt.Sprintf("\n<!-- retry_%d_id: %s -->", n, nonce)
		}
		return
	}
}
