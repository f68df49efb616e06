package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/timetable/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the timetable server",
	Long: `Start the timetable HTTP server.

The server provides:
  - /                          - Paste-and-parse page
  - /api/timetable/parse       - Parse pasted text
  - /api/timetable/upload      - Parse an uploaded .txt, .csv, .xlsx or .pdf
  - /health, /ready, /status   - Health checks
  - /swagger                   - API documentation

Edits to the config file are picked up without a restart.

Examples:
  timetable serve                    # Start on the configured port (default 8080)
  timetable serve --port 3000        # Start on custom port
  timetable serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
		cfg := mgr.Get()
		logger := cfg.Logging.NewLogger(os.Stdout)

		if mgr.ConfigFile() != "" {
			mgr.WatchConfig()
			logger.Info("watching config file", "path", mgr.ConfigFile())
		}

		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			ConfigManager: mgr,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}
