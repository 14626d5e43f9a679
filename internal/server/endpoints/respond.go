package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/fieldlens/fieldlens/internal/extraction"
	"github.com/fieldlens/fieldlens/internal/pdf"
	"github.com/fieldlens/fieldlens/internal/schema"
	"github.com/fieldlens/fieldlens/internal/session"
)

// RoundResponse is one extraction round as returned by the API. Field order
// follows the schema.
type RoundResponse struct {
	SessionID   string                  `json:"session_id"`
	Round       int                     `json:"round"`
	Valid       bool                    `json:"valid"`
	NeedsReview bool                    `json:"needs_review"`
	Fields      []extraction.FieldValue `json:"fields"`
	Problems    []schema.Problem        `json:"problems,omitempty"`
	Notes       string                  `json:"notes,omitempty"`
	Feedback    string                  `json:"feedback,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

func roundResponse(sessionID string, res *extraction.Result) RoundResponse {
	return RoundResponse{
		SessionID:   sessionID,
		Round:       res.Round,
		Valid:       res.Valid,
		NeedsReview: res.NeedsReview,
		Fields:      res.Fields,
		Problems:    res.Problems,
		Notes:       res.Notes,
		Feedback:    res.Feedback,
		CreatedAt:   res.CreatedAt,
	}
}

// SessionResponse is session metadata as returned by the API.
type SessionResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	PageCount int       `json:"page_count"`
	Rounds    int       `json:"rounds"`
	CreatedAt time.Time `json:"created_at"`
}

func sessionResponse(sess *session.Session) SessionResponse {
	resp := SessionResponse{
		ID:        sess.ID,
		Filename:  sess.Filename,
		Rounds:    sess.Rounds(),
		CreatedAt: sess.CreatedAt,
	}
	if sess.Document != nil {
		resp.PageCount = sess.Document.PageCount
	}
	return resp
}

// writeDomainError maps domain sentinels onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, "session has an extraction run in flight")
	case errors.Is(err, extraction.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pdf.ErrDocumentUnreadable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, extraction.ErrExtractionFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
