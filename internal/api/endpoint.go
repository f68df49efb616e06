package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint defines both an HTTP route and its corresponding CLI command.
// This provides a single source of truth for API operations.
type Endpoint interface {
	// Route returns the HTTP method, path, and handler for this endpoint.
	Route() (method, path string, handler http.HandlerFunc)

	// RequiresInit returns true if this endpoint needs the import services
	// to be wired before it can serve requests.
	RequiresInit() bool

	// Command returns a Cobra command that calls this endpoint via HTTP.
	// getServerURL is called at runtime to get the server URL (deferred evaluation).
	// A nil command means the endpoint is HTTP only.
	Command(getServerURL func() string) *cobra.Command
}

// Grouped is implemented by endpoints whose CLI command lives under a
// subcommand, such as "prompts list".
type Grouped interface {
	CommandGroup() (name, short string)
}
