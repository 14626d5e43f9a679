package main

import (
	"github.com/spf13/cobra"

	"github.com/fieldlens/fieldlens/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running fieldlens server via HTTP.

These commands require a running server (fieldlens serve).
Use --server to specify a custom server URL.

Examples:
  fieldlens api health                  # Check server health
  fieldlens api upload invoice.pdf      # Upload a PDF, open a session
  fieldlens api sessions list           # List active sessions
  fieldlens api sessions extract <id>   # Run an extraction round`,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Extraction session commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8385", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// Upload at top level of api, it starts the session lifecycle
	apiCmd.AddCommand((&endpoints.UploadDocumentEndpoint{}).Command(getServerURL))

	// Sessions as subcommand group
	for _, ep := range endpoints.SessionCommands() {
		sessionsCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(apiCmd)
}
