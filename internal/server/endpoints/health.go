package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/timetable/internal/api"
	"github.com/jackzampolin/timetable/internal/svcctx"
	"github.com/jackzampolin/timetable/version"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Remote string `json:"remote,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Readiness check
//	@Description	Ready once the importer is wired. Remote reports whether model-assisted parsing is available.
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	imp := svcctx.ImporterFrom(r.Context())
	if imp == nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "not_initialized"})
		return
	}

	resp := HealthResponse{Status: "ok", Remote: "disabled"}
	if imp.RemoteAvailable() {
		resp.Remote = "enabled"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			if resp.Remote != "" {
				fmt.Printf("Remote: %s\n", resp.Remote)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server     string         `json:"server"`
	Version    string         `json:"version"`
	ConfigFile string         `json:"config_file,omitempty"`
	Home       string         `json:"home,omitempty"`
	Import     ImportStatus   `json:"import"`
	Providers  ProviderStatus `json:"providers"`
}

// ImportStatus shows how imports are currently configured.
type ImportStatus struct {
	RemoteEnabled   bool   `json:"remote_enabled"`
	RemoteAvailable bool   `json:"remote_available"`
	RemoteTimeout   string `json:"remote_timeout"`
	MaxUploadBytes  int64  `json:"max_upload_bytes"`
}

// ProviderStatus shows registered LLM providers.
type ProviderStatus struct {
	LLM     []string `json:"llm"`
	Default string   `json:"default,omitempty"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Detailed server status
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{
		Server:  "running",
		Version: version.GitRelease,
	}

	if registry := svcctx.RegistryFrom(ctx); registry != nil {
		resp.Providers.LLM = registry.ListLLM()
	}
	if imp := svcctx.ImporterFrom(ctx); imp != nil {
		resp.Import.RemoteAvailable = imp.RemoteAvailable()
	}
	if cfg := svcctx.ConfigFrom(ctx); cfg != nil {
		resp.Import.RemoteEnabled = cfg.Import.RemoteEnabled
		resp.Import.RemoteTimeout = cfg.Import.RemoteTimeout.String()
		resp.Import.MaxUploadBytes = cfg.Import.MaxUploadBytes
		resp.Providers.Default = cfg.Defaults.LLMProvider
	}
	if s := svcctx.ServicesFrom(ctx); s != nil && s.ConfigManager != nil {
		resp.ConfigFile = s.ConfigManager.ConfigFile()
	}
	if h := svcctx.HomeFrom(ctx); h != nil {
		resp.Home = h.Path()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
