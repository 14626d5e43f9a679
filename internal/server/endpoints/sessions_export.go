package endpoints

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldlens/fieldlens/internal/api"
	"github.com/fieldlens/fieldlens/internal/svcctx"
)

// ExportResultEndpoint handles GET /api/sessions/{id}/result: the latest
// round's values as ordered JSON.
type ExportResultEndpoint struct{}

var _ api.Endpoint = (*ExportResultEndpoint)(nil)

func (e *ExportResultEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/result", e.handler
}

func (e *ExportResultEndpoint) RequiresInit() bool { return true }

func (e *ExportResultEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	store := svcctx.SessionStoreFrom(r.Context())
	exporter := svcctx.ExporterFrom(r.Context())
	if store == nil || exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "server not fully initialized")
		return
	}

	sess, err := store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body, err := exporter.ResultJSON(sess)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (e *ExportResultEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "result <session-id>",
		Short: "Get the latest extraction result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			body, err := client.GetRaw(cmd.Context(), "/api/sessions/"+args[0]+"/result")
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		},
	}
}

// ExportXLSXEndpoint handles GET /api/sessions/{id}/export: an XLSX workbook
// with the latest fields and the full round history.
type ExportXLSXEndpoint struct{}

var _ api.Endpoint = (*ExportXLSXEndpoint)(nil)

func (e *ExportXLSXEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/export", e.handler
}

func (e *ExportXLSXEndpoint) RequiresInit() bool { return true }

func (e *ExportXLSXEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	store := svcctx.SessionStoreFrom(r.Context())
	exporter := svcctx.ExporterFrom(r.Context())
	if store == nil || exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "server not fully initialized")
		return
	}

	sess, err := store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data, err := exporter.SessionXLSX(sess)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (e *ExportXLSXEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Download a session's extraction workbook (XLSX)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, err := client.GetRaw(cmd.Context(), "/api/sessions/"+args[0]+"/export")
			if err != nil {
				return err
			}

			path := outFile
			if path == "" {
				path = args[0] + ".xlsx"
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write workbook: %w", err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", path, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output file path (default <session-id>.xlsx)")
	return cmd
}
