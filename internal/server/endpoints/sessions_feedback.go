package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldlens/fieldlens/internal/api"
	"github.com/fieldlens/fieldlens/internal/svcctx"
)

// FeedbackRequest carries the human's correction text for a feedback round.
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// FeedbackEndpoint handles POST /api/sessions/{id}/feedback.
type FeedbackEndpoint struct{}

var _ api.Endpoint = (*FeedbackEndpoint)(nil)

func (e *FeedbackEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/feedback", e.handler
}

func (e *FeedbackEndpoint) RequiresInit() bool { return true }

func (e *FeedbackEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Feedback) == "" {
		writeError(w, http.StatusBadRequest, "feedback text is required")
		return
	}

	mgr := svcctx.ManagerFrom(r.Context())
	if mgr == nil {
		writeError(w, http.StatusServiceUnavailable, "session manager not initialized")
		return
	}

	result, err := mgr.SubmitFeedback(r.Context(), id, req.Feedback)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, roundResponse(id, result))
}

func (e *FeedbackEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "feedback <session-id> <text>",
		Short: "Submit feedback on the latest extraction round",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp RoundResponse
			err := client.Post(cmd.Context(), "/api/sessions/"+args[0]+"/feedback",
				FeedbackRequest{Feedback: strings.Join(args[1:], " ")}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
