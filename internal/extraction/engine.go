package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldlens/fieldlens/internal/pdf"
	"github.com/fieldlens/fieldlens/internal/providers"
	"github.com/fieldlens/fieldlens/internal/schema"
)

const outputSchemaName = "field_extraction"

// EngineConfig holds generation settings for the extraction engine.
type EngineConfig struct {
	Model       string        // client default if empty
	Temperature float64       // default 0.1
	MaxTokens   int           // 0 = provider default
	Timeout     time.Duration // per-call timeout, 0 = none
}

// Engine translates (document, schema, optional prior result + feedback) into
// a single structured-output request and parses the model's response into a
// field set. It trusts the model's per-field confidence but clamps it into
// [0,1], and coerces unparseable entries to null rather than failing the call.
type Engine struct {
	client providers.LLMClient
	cfg    EngineConfig
	logger *slog.Logger
}

// NewEngine creates an extraction engine over the given LLM client.
func NewEngine(client providers.LLMClient, cfg EngineConfig, logger *slog.Logger) *Engine {
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{client: client, cfg: cfg, logger: logger}
}

// Request is one extraction attempt's input.
type Request struct {
	Document *pdf.Document
	Schema   *schema.Schema
	Prior    *Result
	Feedback string
}

// Extract issues one request to the language model and returns the raw field
// set. Round number, validity, and problems are the workflow's concern; the
// returned Result carries only fields and notes.
func (e *Engine) Extract(ctx context.Context, req *Request) (*Result, error) {
	if req.Schema == nil || req.Schema.Len() == 0 {
		return nil, fmt.Errorf("%w: schema has no fields", ErrInvalidInput)
	}
	if req.Document == nil || len(req.Document.Pages) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrInvalidInput)
	}

	outputSchema, err := json.Marshal(req.Schema.OutputSchema())
	if err != nil {
		return nil, fmt.Errorf("%w: cannot build output schema: %v", ErrInvalidInput, err)
	}

	userPrompt, err := buildUserPrompt(req.Document, req.Schema, req.Prior, req.Feedback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	completion, err := e.client.Complete(ctx, &providers.CompletionRequest{
		System:      systemPrompt,
		User:        userPrompt,
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
		Timeout:     e.cfg.Timeout,
		ResponseFormat: &providers.ResponseFormat{
			Name:   outputSchemaName,
			Schema: outputSchema,
		},
	})
	if err != nil {
		return nil, &ExtractionError{Stage: "complete", Err: err}
	}

	parsed := completion.ParsedJSON
	if len(parsed) == 0 {
		parsed, err = providers.ParseStructuredJSON(completion.Content)
		if err != nil {
			return nil, &ExtractionError{Stage: "parse", Err: err}
		}
	}

	result, err := e.decodeResponse(parsed, req.Schema)
	if err != nil {
		return nil, &ExtractionError{Stage: "decode", Err: err}
	}

	e.logger.Debug("extraction call complete",
		"provider", completion.Provider,
		"model", completion.ModelUsed,
		"tokens", completion.TotalTokens,
		"duration", completion.ExecutionTime,
	)
	return result, nil
}

// decodeResponse maps the model's envelope onto the schema's field order.
// Fields the model omitted come back as null with confidence 0; so do
// entries whose shape cannot be decoded.
func (e *Engine) decodeResponse(parsed json.RawMessage, sch *schema.Schema) (*Result, error) {
	var envelope struct {
		Fields map[string]json.RawMessage `json:"fields"`
		Notes  *string                    `json:"extraction_notes"`
	}
	if err := json.Unmarshal(parsed, &envelope); err != nil {
		return nil, fmt.Errorf("response envelope malformed: %w", err)
	}
	if envelope.Fields == nil {
		return nil, fmt.Errorf("response has no fields object")
	}

	result := &Result{Fields: make([]FieldValue, 0, sch.Len())}
	if envelope.Notes != nil {
		result.Notes = *envelope.Notes
	}

	for _, f := range sch.Fields() {
		result.Fields = append(result.Fields, decodeEntry(f.Name, envelope.Fields[f.Name]))
	}
	return result, nil
}

func decodeEntry(name string, raw json.RawMessage) FieldValue {
	if len(raw) == 0 {
		return FieldValue{Name: name, Value: nil, Confidence: 0}
	}

	var entry struct {
		Value      any      `json:"value"`
		Confidence *float64 `json:"confidence"`
		Rationale  string   `json:"rationale"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Entry shape the model got wrong: coerce, don't fail the call.
		return FieldValue{Name: name, Value: nil, Confidence: 0}
	}

	confidence := 0.0
	if entry.Confidence != nil {
		confidence = clampConfidence(*entry.Confidence)
	}
	return FieldValue{
		Name:       name,
		Value:      entry.Value,
		Confidence: confidence,
		Rationale:  entry.Rationale,
	}
}

// clampConfidence forces model-reported confidence into [0,1].
func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
