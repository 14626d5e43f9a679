package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fieldlens/fieldlens/internal/api"
	"github.com/fieldlens/fieldlens/internal/session"
	"github.com/fieldlens/fieldlens/internal/svcctx"
)

// UploadResponse is returned after a successful document upload.
type UploadResponse struct {
	SessionID   string `json:"session_id"`
	Filename    string `json:"filename"`
	PageCount   int    `json:"page_count"`
	TextPreview string `json:"text_preview,omitempty"`
}

const textPreviewLimit = 500

// UploadDocumentEndpoint handles POST /api/documents with a multipart PDF
// upload. It renders the document text up front and creates a session, so a
// broken PDF is rejected before any extraction is attempted.
type UploadDocumentEndpoint struct {
	// MaxSizeBytes caps the accepted upload. Zero means 50MB.
	MaxSizeBytes int64
}

var _ api.Endpoint = (*UploadDocumentEndpoint)(nil)

func (e *UploadDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents", e.handler
}

func (e *UploadDocumentEndpoint) RequiresInit() bool { return true }

func (e *UploadDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	maxSize := e.MaxSizeBytes
	if maxSize <= 0 {
		maxSize = 50 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file %s is not a PDF", header.Filename))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	renderer := svcctx.RendererFrom(r.Context())
	store := svcctx.SessionStoreFrom(r.Context())
	if renderer == nil || store == nil {
		writeError(w, http.StatusServiceUnavailable, "server not fully initialized")
		return
	}

	doc, err := renderer.Render(r.Context(), data)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sessionID := uuid.New().String()
	sess := &session.Session{
		ID:        sessionID,
		Filename:  header.Filename,
		Document:  doc,
		CreatedAt: time.Now().UTC(),
	}

	// Keep the original bytes on disk when a home dir is configured.
	if homeDir := svcctx.HomeFrom(r.Context()); homeDir != nil {
		path := homeDir.DocumentPath(sessionID)
		if err := os.WriteFile(path, data, 0o644); err == nil {
			sess.DocumentPath = path
		} else if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Warn("failed to persist uploaded document", "session", sessionID, "error", err)
		}
	}

	if err := store.Create(r.Context(), sess); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		SessionID:   sessionID,
		Filename:    header.Filename,
		PageCount:   doc.PageCount,
		TextPreview: preview(doc.Text(), textPreviewLimit),
	})
}

func (e *UploadDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF and create an extraction session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp UploadResponse
			if err := client.PostFile(cmd.Context(), "/api/documents", args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// preview returns the first n runes of s, cut at a rune boundary.
func preview(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
