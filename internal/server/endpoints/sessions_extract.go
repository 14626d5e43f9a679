package endpoints

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldlens/fieldlens/internal/api"
	"github.com/fieldlens/fieldlens/internal/schema"
	"github.com/fieldlens/fieldlens/internal/svcctx"
)

// ExtractRequest carries the field schema for an initial extraction round.
// The schema body accepts both JSON Schema style and the compact
// name-to-type mapping.
type ExtractRequest struct {
	Schema json.RawMessage `json:"schema"`
}

// ExtractEndpoint handles POST /api/sessions/{id}/extract.
type ExtractEndpoint struct{}

var _ api.Endpoint = (*ExtractEndpoint)(nil)

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Schema) == 0 {
		writeError(w, http.StatusBadRequest, "schema is required")
		return
	}

	sch, err := schema.ParseJSON(req.Schema)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid schema: %v", err))
		return
	}

	mgr := svcctx.ManagerFrom(r.Context())
	if mgr == nil {
		writeError(w, http.StatusServiceUnavailable, "session manager not initialized")
		return
	}

	result, err := mgr.Extract(r.Context(), id, sch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, roundResponse(id, result))
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var schemaFile string
	cmd := &cobra.Command{
		Use:   "extract <session-id>",
		Short: "Run an extraction round against a session",
		Long: `Run an extraction round against a session.

The field schema is read from --schema as a JSON file. Both JSON Schema
style ({"properties": ...}) and the compact name-to-type mapping are
accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schemaJSON []byte
			var err error
			if schemaFile == "-" {
				schemaJSON, err = io.ReadAll(cmd.InOrStdin())
			} else {
				schemaJSON, err = os.ReadFile(schemaFile)
			}
			if err != nil {
				return fmt.Errorf("failed to read schema: %w", err)
			}

			client := api.NewClient(getServerURL())
			var resp RoundResponse
			err = client.Post(cmd.Context(), "/api/sessions/"+args[0]+"/extract",
				ExtractRequest{Schema: schemaJSON}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&schemaFile, "schema", "", "path to the field schema JSON (use - for stdin)")
	cmd.MarkFlagRequired("schema")
	return cmd
}
