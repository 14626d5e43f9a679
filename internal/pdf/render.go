// Package pdf turns an uploaded PDF into the ordered page content the
// extraction workflow consumes. Structure handling (xref, page tree, stream
// decompression) is delegated to pdfcpu; text is recovered from the decoded
// page content streams.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// ErrDocumentUnreadable indicates the uploaded bytes are not a readable PDF.
var ErrDocumentUnreadable = errors.New("document unreadable")

// Page is the extracted content of a single page. Pages are 1-indexed and
// returned in document order.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Document is the rendered form of an uploaded PDF.
type Document struct {
	Pages     []Page `json:"pages"`
	PageCount int    `json:"page_count"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
}

// Text joins all page text with page markers, the form fed into prompts.
func (d *Document) Text() string {
	var buf bytes.Buffer
	for i, p := range d.Pages {
		if i > 0 {
			buf.WriteString("\n\n")
		}
		fmt.Fprintf(&buf, "--- Page %d ---\n%s", p.Number, p.Text)
	}
	return buf.String()
}

// Renderer renders PDF bytes into ordered page content.
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

// Render parses the document and extracts per-page text. Corrupt or
// unparseable input fails with ErrDocumentUnreadable; a page whose content
// stream cannot be decoded yields an empty page rather than failing the
// whole document.
func (r *Renderer) Render(ctx context.Context, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDocumentUnreadable)
	}

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}

	pageCount := pdfCtx.PageCount
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrDocumentUnreadable)
	}

	doc := &Document{
		PageCount: pageCount,
		Pages:     make([]Page, 0, pageCount),
		Title:     pdfCtx.Title,
		Author:    pdfCtx.Author,
	}

	for pageNr := 1; pageNr <= pageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := ""
		reader, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil || reader == nil {
			r.logger.Warn("failed to extract page content", "page", pageNr, "error", err)
		} else {
			content, rerr := io.ReadAll(reader)
			if rerr != nil {
				r.logger.Warn("failed to read page content", "page", pageNr, "error", rerr)
			} else {
				text = decodeContentText(content)
			}
		}

		doc.Pages = append(doc.Pages, Page{Number: pageNr, Text: text})
	}

	return doc, nil
}

// PageCount returns the page count without extracting content.
func (r *Renderer) PageCount(data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}
	return count, nil
}
