package extraction

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/fieldlens/fieldlens/internal/pdf"
	"github.com/fieldlens/fieldlens/internal/schema"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

type promptData struct {
	SchemaJSON   string
	DocumentText string
	PriorJSON    string
	PriorRound   int
	Feedback     string
}

// buildUserPrompt renders the user message for one extraction attempt.
func buildUserPrompt(doc *pdf.Document, sch *schema.Schema, prior *Result, feedback string) (string, error) {
	schemaJSON, err := json.MarshalIndent(sch.Fields(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize schema: %w", err)
	}

	data := promptData{
		SchemaJSON:   string(schemaJSON),
		DocumentText: doc.Text(),
		Feedback:     feedback,
	}

	if prior != nil {
		priorJSON, err := prior.Export()
		if err != nil {
			return "", fmt.Errorf("failed to serialize prior result: %w", err)
		}
		data.PriorJSON = string(priorJSON)
		data.PriorRound = prior.Round
	}

	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
