package server

import (
	"log/slog"

	"github.com/jackzampolin/timetable/internal/config"
	"github.com/jackzampolin/timetable/internal/home"
	"github.com/jackzampolin/timetable/internal/importer"
	"github.com/jackzampolin/timetable/internal/prompts"
	"github.com/jackzampolin/timetable/internal/prompts/schedule"
	"github.com/jackzampolin/timetable/internal/providers"
	"github.com/jackzampolin/timetable/internal/svcctx"
)

// NewServices builds the import services from configuration. With a manager,
// later config changes reload the providers, the prompt overrides and the
// importer settings in place. cfgMgr may be nil, in which case defaults apply.
func NewServices(cfgMgr *config.Manager, h *home.Dir, logger *slog.Logger) *svcctx.Services {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := config.DefaultConfig()
	if cfgMgr != nil {
		cfg = cfgMgr.Get()
	}

	registry := providers.NewRegistry()
	registry.SetLogger(logger)
	registry.Reload(cfg.ToProviderRegistryConfig())

	resolver := prompts.NewResolver(logger)
	schedule.RegisterPrompts(resolver)
	resolver.SetOverrides(cfg.Prompts)

	imp := importer.New(
		importer.SettingsFromConfig(cfg),
		importer.RemoteFromConfig(cfg, registry, resolver),
		logger,
	)

	if cfgMgr != nil {
		cfgMgr.OnChange(func(c *config.Config) {
			registry.Reload(c.ToProviderRegistryConfig())
			resolver.SetOverrides(c.Prompts)
			imp.Configure(importer.SettingsFromConfig(c), importer.RemoteFromConfig(c, registry, resolver))
			logger.Info("services reloaded from config",
				"remote_enabled", c.Import.RemoteEnabled,
				"llm_providers", registry.ListLLM())
		})
	}

	return &svcctx.Services{
		Importer:       imp,
		Registry:       registry,
		PromptResolver: resolver,
		ConfigManager:  cfgMgr,
		Logger:         logger,
		Home:           h,
	}
}
