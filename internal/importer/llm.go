package importer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackzampolin/timetable/internal/prompts"
	"github.com/jackzampolin/timetable/internal/prompts/schedule"
	"github.com/jackzampolin/timetable/internal/providers"
	"github.com/jackzampolin/timetable/internal/timetable"
)

// RemoteParser turns raw timetable text into a schedule-shaped JSON object.
// Any error is treated as a failed attempt and triggers the local fallback.
type RemoteParser interface {
	ParseRemote(ctx context.Context, text string) (json.RawMessage, error)
	Name() string
}

// LLMParserConfig configures an LLMParser.
type LLMParserConfig struct {
	Model     string // Uses the client default if empty
	MaxTokens int
	RPM       int // Client-side request budget; 0 disables
}

// LLMParser implements RemoteParser over any LLM client.
type LLMParser struct {
	client   providers.LLMClient
	resolver *prompts.Resolver
	cfg      LLMParserConfig
	limiter  *providers.RateLimiter
	format   *providers.ResponseFormat
}

// NewLLMParser creates a remote parser. A nil resolver uses the embedded prompts.
func NewLLMParser(client providers.LLMClient, resolver *prompts.Resolver, cfg LLMParserConfig) (*LLMParser, error) {
	if client == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	if resolver == nil {
		resolver = prompts.NewResolver(nil)
		schedule.RegisterPrompts(resolver)
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8192
	}

	schemaJSON, err := json.Marshal(schedule.ResponseSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response schema: %w", err)
	}

	p := &LLMParser{
		client:   client,
		resolver: resolver,
		cfg:      cfg,
		format:   &providers.ResponseFormat{Type: "json_schema", JSONSchema: schemaJSON},
	}
	if cfg.RPM > 0 {
		p.limiter = providers.NewRateLimiter(cfg.RPM)
	}
	return p, nil
}

// Name returns the underlying client name.
func (p *LLMParser) Name() string {
	return p.client.Name()
}

// ParseRemote asks the model for a schedule and returns its validated JSON reply.
func (p *LLMParser) ParseRemote(ctx context.Context, text string) (json.RawMessage, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	system, err := p.resolver.Render(schedule.SystemPromptKey, nil)
	if err != nil {
		return nil, err
	}
	periods := timetable.DefaultPeriods()
	periodNames := make([]string, len(periods))
	for i, pr := range periods {
		periodNames[i] = pr.Name
	}
	user, err := p.resolver.Render(schedule.UserPromptKey, schedule.NewUserPromptData(text, timetable.DefaultDays(), periodNames))
	if err != nil {
		return nil, err
	}

	result, err := p.client.Chat(ctx, &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Model:          p.cfg.Model,
		MaxTokens:      p.cfg.MaxTokens,
		ResponseFormat: p.format,
	})
	if err != nil {
		return nil, fmt.Errorf("%s chat failed: %w", p.client.Name(), err)
	}
	if len(result.ParsedJSON) == 0 {
		return nil, fmt.Errorf("%w: empty reply from %s", ErrMalformedRemote, p.client.Name())
	}
	return result.ParsedJSON, nil
}

var _ RemoteParser = (*LLMParser)(nil)
