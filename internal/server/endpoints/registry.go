package endpoints

import (
	"github.com/fieldlens/fieldlens/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// MaxUploadBytes caps document uploads. Zero uses the endpoint default.
	MaxUploadBytes int64
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Document upload
		&UploadDocumentEndpoint{MaxSizeBytes: cfg.MaxUploadBytes},

		// Session endpoints
		&ListSessionsEndpoint{},
		&GetSessionEndpoint{},
		&DeleteSessionEndpoint{},
		&ExtractEndpoint{},
		&FeedbackEndpoint{},
		&HistoryEndpoint{},
		&DocumentTextEndpoint{},

		// Export endpoints
		&ExportResultEndpoint{},
		&ExportXLSXEndpoint{},
	}
}

// SessionCommands returns endpoints for session operations.
// This groups session-related commands under the "sessions" subcommand.
func SessionCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListSessionsEndpoint{},
		&GetSessionEndpoint{},
		&DeleteSessionEndpoint{},
		&ExtractEndpoint{},
		&FeedbackEndpoint{},
		&HistoryEndpoint{},
		&DocumentTextEndpoint{},
		&ExportResultEndpoint{},
		&ExportXLSXEndpoint{},
	}
}
