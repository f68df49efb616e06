// Package importer wraps the timetable parser with optional model-assisted parsing.
//
// A remote attempt runs first when it is both configured and requested. Any remote
// failure falls back to the local parser, and the result says so.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jackzampolin/timetable/internal/config"
	"github.com/jackzampolin/timetable/internal/prompts"
	"github.com/jackzampolin/timetable/internal/providers"
	"github.com/jackzampolin/timetable/internal/timetable"
)

// IncompleteNotice accompanies every result produced by a fallback path.
const IncompleteNotice = "Results may be incomplete"

// Source says which path produced a schedule.
type Source string

const (
	SourceRemote  Source = "remote"
	SourceLocal   Source = "local"
	SourceDefault Source = "default"
)

// Settings controls the import flow.
type Settings struct {
	RemoteEnabled bool
	RemoteTimeout time.Duration
	Parser        timetable.Options
}

// DefaultSettings returns settings with remote parsing off.
func DefaultSettings() Settings {
	return Settings{
		RemoteTimeout: 90 * time.Second,
		Parser:        timetable.DefaultOptions(),
	}
}

// SettingsFromConfig extracts import settings from configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		RemoteEnabled: cfg.Import.RemoteEnabled,
		RemoteTimeout: cfg.Import.RemoteTimeout,
		Parser:        timetable.Options{Redistribution: cfg.Parser.Redistribution},
	}
}

// Options are per-request choices.
type Options struct {
	// Remote asks for a model-assisted parse. It only runs when remote parsing is enabled.
	Remote bool
}

// Result is the outcome of an import.
type Result struct {
	ID             string              `json:"id"`
	Schedule       *timetable.Schedule `json:"schedule"`
	Source         Source              `json:"source"`
	Format         timetable.Format    `json:"format,omitempty"`
	Provider       string              `json:"provider,omitempty"`
	Fallback       bool                `json:"fallback"`
	FallbackReason string              `json:"fallback_reason,omitempty"`
	Notice         string              `json:"notice,omitempty"`
	Classes        int                 `json:"classes"`
	Duration       time.Duration       `json:"duration_ns"`
}

// Importer runs imports. It is safe for concurrent use and can be reconfigured
// while imports are in flight.
type Importer struct {
	mu       sync.RWMutex
	settings Settings
	parser   *timetable.Parser
	remote   RemoteParser
	logger   *slog.Logger
}

// New creates an importer. remote may be nil.
func New(settings Settings, remote RemoteParser, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		settings: settings,
		parser:   timetable.NewParser(settings.Parser),
		remote:   remote,
		logger:   logger,
	}
}

// Configure swaps settings and the remote parser.
func (i *Importer) Configure(settings Settings, remote RemoteParser) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.settings = settings
	i.parser = timetable.NewParser(settings.Parser)
	i.remote = remote
}

// RemoteAvailable reports whether a remote attempt would run if requested.
func (i *Importer) RemoteAvailable() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.settings.RemoteEnabled && i.remote != nil
}

// Import parses text into a schedule. It never fails: every problem resolves to a
// local or default schedule with the fallback flags set.
func (i *Importer) Import(ctx context.Context, text string, opts Options) *Result {
	start := time.Now()
	i.mu.RLock()
	settings, parser, remote := i.settings, i.parser, i.remote
	i.mu.RUnlock()

	res := &Result{ID: uuid.New().String()}
	log := i.logger.With("import_id", res.ID)

	if opts.Remote {
		var err error
		switch {
		case !settings.RemoteEnabled || remote == nil:
			err = ErrRemoteDisabled
		default:
			res.Provider = remote.Name()
			var s *timetable.Schedule
			s, err = i.tryRemote(ctx, remote, parser, settings.RemoteTimeout, text)
			if err == nil {
				res.Schedule = s
				res.Source = SourceRemote
				res.Classes = s.ClassCount()
				res.Duration = time.Since(start)
				log.Info("remote import complete", "provider", res.Provider, "classes", res.Classes)
				return res
			}
		}
		res.Fallback = true
		res.FallbackReason = err.Error()
		log.Warn("remote parse failed, falling back to local parser", "reason", res.FallbackReason, "provider", res.Provider)
	}

	s, rep := parser.ParseWithReport(text)
	res.Schedule = s
	res.Format = rep.Format
	res.Classes = rep.Classes
	res.Source = SourceLocal
	if rep.Fallback {
		res.Source = SourceDefault
		if !res.Fallback {
			res.Fallback = true
			res.FallbackReason = rep.Reason
		} else {
			res.FallbackReason = fmt.Sprintf("%s; %s", res.FallbackReason, rep.Reason)
		}
		log.Warn("local parse fell back to default schedule", "reason", rep.Reason, "provider", res.Provider)
	}
	if res.Fallback {
		res.Notice = IncompleteNotice
	}
	res.Duration = time.Since(start)
	log.Debug("import complete", "source", res.Source, "format", res.Format, "classes", res.Classes)
	return res
}

func (i *Importer) tryRemote(ctx context.Context, remote RemoteParser, parser *timetable.Parser, timeout time.Duration, text string) (s *timetable.Schedule, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("remote parser panic: %v", r)
		}
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, err := remote.ParseRemote(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("remote parse timed out after %s", timeout)
		}
		return nil, err
	}
	d, err := decodeRemote(raw)
	if err != nil {
		return nil, err
	}
	s = parser.Normalize(d, utf8.RuneCountInString(text))
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRemote, err)
	}
	return s, nil
}

// RemoteFromConfig builds the remote parser for the configured default provider.
// It returns nil when remote parsing is off or the provider is not registered.
func RemoteFromConfig(cfg *config.Config, registry *providers.Registry, resolver *prompts.Resolver) RemoteParser {
	if !cfg.Import.RemoteEnabled || registry == nil {
		return nil
	}
	name := cfg.Defaults.LLMProvider
	client, err := registry.GetLLM(name)
	if err != nil {
		return nil
	}
	provCfg, _ := cfg.GetLLMProvider(name)
	parser, err := NewLLMParser(client, resolver, LLMParserConfig{Model: provCfg.Model})
	if err != nil {
		return nil
	}
	return parser
}
