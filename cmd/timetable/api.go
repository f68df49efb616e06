package main

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/timetable/internal/api"
	"github.com/jackzampolin/timetable/internal/server/endpoints"
)

var (
	serverURL   string
	waitTimeout time.Duration
)

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait until the server reports ready",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), waitTimeout)
		defer cancel()
		return waitForReady(ctx, api.NewClient(getServerURL()))
	},
}

// waitForReady polls /ready until the server answers ok or ctx ends.
func waitForReady(ctx context.Context, client *api.Client) error {
	err := retry.Do(
		func() error {
			var resp endpoints.HealthResponse
			if err := client.Get(ctx, "/ready", &resp); err != nil {
				return err
			}
			if resp.Status != "ok" {
				return fmt.Errorf("server status %q", resp.Status)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(250*time.Millisecond),
		retry.MaxDelay(2*time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("server at %s not ready: %w", client.BaseURL(), err)
	}
	return nil
}

func init() {
	registry := api.NewRegistry()
	for _, ep := range endpoints.All() {
		registry.Register(ep)
	}
	apiCmd := registry.BuildCommands(getServerURL)

	// Persistent so all subcommands inherit it
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", 30*time.Second, "How long to wait")
	apiCmd.AddCommand(waitCmd)

	rootCmd.AddCommand(apiCmd)
}
