package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/fieldlens/fieldlens/internal/api"
	"github.com/fieldlens/fieldlens/internal/svcctx"
)

// HistoryResponse is every extraction round of a session, oldest first.
type HistoryResponse struct {
	SessionID string          `json:"session_id"`
	Rounds    []RoundResponse `json:"rounds"`
}

// HistoryEndpoint handles GET /api/sessions/{id}/history.
type HistoryEndpoint struct{}

var _ api.Endpoint = (*HistoryEndpoint)(nil)

func (e *HistoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/history", e.handler
}

func (e *HistoryEndpoint) RequiresInit() bool { return true }

func (e *HistoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	store := svcctx.SessionStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "session store not initialized")
		return
	}

	sess, err := store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := HistoryResponse{
		SessionID: id,
		Rounds:    make([]RoundResponse, 0, len(sess.History)),
	}
	for _, res := range sess.History {
		resp.Rounds = append(resp.Rounds, roundResponse(id, res))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *HistoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "history <session-id>",
		Short: "List all extraction rounds of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HistoryResponse
			if err := client.Get(cmd.Context(), "/api/sessions/"+args[0]+"/history", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DocumentTextResponse carries the rendered document text.
type DocumentTextResponse struct {
	SessionID string `json:"session_id"`
	PageCount int    `json:"page_count"`
	Text      string `json:"text"`
}

// DocumentTextEndpoint handles GET /api/sessions/{id}/text.
type DocumentTextEndpoint struct{}

var _ api.Endpoint = (*DocumentTextEndpoint)(nil)

func (e *DocumentTextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{id}/text", e.handler
}

func (e *DocumentTextEndpoint) RequiresInit() bool { return true }

func (e *DocumentTextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	store := svcctx.SessionStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "session store not initialized")
		return
	}

	sess, err := store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := DocumentTextResponse{SessionID: id}
	if sess.Document != nil {
		resp.PageCount = sess.Document.PageCount
		resp.Text = sess.Document.Text()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *DocumentTextEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "text <session-id>",
		Short: "Show the rendered document text for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DocumentTextResponse
			if err := client.Get(cmd.Context(), "/api/sessions/"+args[0]+"/text", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
