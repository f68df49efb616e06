package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// maxStructuredRepairAttempts limits self-repair round-trips when a reply fails
// to parse or validate.
const maxStructuredRepairAttempts = 2

// chatStructured sends req through send, then parses and validates the reply against
// req.ResponseFormat. Failed replies are returned to the model with a repair prompt.
func chatStructured(ctx context.Context, req *ChatRequest, send func(context.Context, *ChatRequest) (*ChatResult, error)) (*ChatResult, error) {
	attempt := *req
	attempt.Messages = append([]Message(nil), req.Messages...)

	var lastErr error
	for i := 0; i <= maxStructuredRepairAttempts; i++ {
		result, err := send(ctx, &attempt)
		if err != nil {
			return result, err
		}

		parsed, err := parseStructuredJSON(result.Content)
		if err == nil {
			err = validateStructuredJSON(req.ResponseFormat.JSONSchema, parsed)
		}
		if err == nil {
			result.ParsedJSON = parsed
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		attempt.Messages = append(attempt.Messages,
			Message{Role: "assistant", Content: result.Content},
			Message{Role: "user", Content: structuredRepairPrompt(req.ResponseFormat.JSONSchema, result.Content, err)},
		)
	}
	return &ChatResult{
		Success:      false,
		ErrorType:    "structured_output",
		ErrorMessage: lastErr.Error(),
	}, fmt.Errorf("%w: %v", ErrStructuredOutput, lastErr)
}

// adaptedResponseFormat returns the OpenRouter response format for a model.
// Anthropic models may be routed to backends that reject native structured
// outputs, so they rely on the prompt plus local validation instead.
func adaptedResponseFormat(model string, rf *ResponseFormat) (*openRouterResponseFormat, error) {
	if rf == nil || isAnthropicModel(model) {
		return nil, nil
	}
	if len(rf.JSONSchema) > 0 && !json.Valid(rf.JSONSchema) {
		return nil, fmt.Errorf("invalid structured schema JSON")
	}
	return &openRouterResponseFormat{
		Type:       rf.Type,
		JSONSchema: rf.JSONSchema,
	}, nil
}

func isAnthropicModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "anthropic/")
}

// parseStructuredJSON parses JSON from model output, recovering from markdown
// code fences and surrounding prose.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content, stripCodeFences(content), extractJSONCandidate(content)}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			continue
		}
		normalized, err := json.Marshal(parsed)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize structured output: %w", err)
		}
		return normalized, nil
	}
	return nil, fmt.Errorf("failed to parse structured JSON")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// extractJSONCandidate returns the span from the first opening brace or bracket to
// its last matching closer.
func extractJSONCandidate(content string) string {
	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return ""
	}
	closer := "}"
	if content[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(content, closer)
	if end < start {
		return ""
	}
	return content[start : end+1]
}

// compiled schemas keyed by their canonical text
var schemaCache sync.Map

// validateStructuredJSON validates parsed JSON against a schema document or an
// OpenAI-style wrapper around one.
func validateStructuredJSON(schemaRaw, parsed json.RawMessage) error {
	if len(schemaRaw) == 0 || len(parsed) == 0 {
		return nil
	}
	schema, err := compileSchema(schemaRaw)
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("failed to decode structured JSON for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("structured output does not match schema: %w", err)
	}
	return nil
}

func compileSchema(schemaRaw json.RawMessage) (*jsonschema.Schema, error) {
	key := string(schemaRaw)
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}

	core, err := extractValidationSchema(schemaRaw)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(core)); err != nil {
		return nil, fmt.Errorf("failed to load structured schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile structured schema: %w", err)
	}
	schemaCache.Store(key, schema)
	return schema, nil
}

func extractValidationSchema(schemaRaw json.RawMessage) (json.RawMessage, error) {
	var root map[string]any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}

	// {"name","strict","schema":{...}}
	if inner, ok := root["schema"]; ok {
		return json.Marshal(inner)
	}
	// {"type":"json_schema","json_schema":{"schema":{...}}}
	if wrapper, ok := root["json_schema"].(map[string]any); ok {
		if inner, ok := wrapper["schema"]; ok {
			return json.Marshal(inner)
		}
	}
	return schemaRaw, nil
}

func structuredRepairPrompt(schemaRaw json.RawMessage, lastOutput string, issue error) string {
	lastOutput = strings.TrimSpace(lastOutput)
	if len(lastOutput) > 12000 {
		lastOutput = lastOutput[:12000] + "\n...[truncated]"
	}

	return fmt.Sprintf(`Return ONLY valid JSON (no markdown, no commentary) that strictly conforms to this schema.

Schema:
%s

Your previous output:
%s

Validation issue:
%v`, string(schemaRaw), lastOutput, issue)
}
