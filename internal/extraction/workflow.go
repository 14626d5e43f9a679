package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldlens/fieldlens/internal/pdf"
	"github.com/fieldlens/fieldlens/internal/schema"
)

// State is a workflow state. The run loop only moves along the declared
// transitions; anything else is a programming error.
type State string

const (
	StateStart      State = "start"
	StateExtracting State = "extracting"
	StateValidating State = "validating"
	StateRetrying   State = "retrying"
	StateDone       State = "done"
)

// DefaultConfidenceThreshold marks required fields below this confidence as
// needing human review.
const DefaultConfidenceThreshold = 0.7

// WorkflowConfig tunes the workflow.
type WorkflowConfig struct {
	// ConfidenceThreshold for the needs-review marker. Default 0.7.
	ConfidenceThreshold float64
}

// Workflow coordinates the extraction engine and the schema validator across
// one run: START → EXTRACTING → VALIDATING → {DONE | RETRYING → EXTRACTING}.
//
// An initial round that fails validation is re-issued exactly once, with the
// identical request; the engine may return a different result due to model
// non-determinism. Feedback rounds skip the retry entirely: a human has
// already judged the result insufficient, so the revised answer goes straight
// back to them. Either way an invalid result is returned with Valid=false
// rather than suppressed.
type Workflow struct {
	engine    *Engine
	threshold float64
	logger    *slog.Logger
}

// NewWorkflow creates a workflow over the given engine.
func NewWorkflow(engine *Engine, cfg WorkflowConfig, logger *slog.Logger) *Workflow {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{engine: engine, threshold: cfg.ConfidenceThreshold, logger: logger}
}

// Run executes one workflow round and returns its snapshot. prior and
// feedback must both be present (a feedback round) or both absent (an initial
// round); anything else fails with ErrInvalidInput. prior is never mutated.
//
// Engine failures surface as ExtractionError without producing a partial
// result; validation failures are data, not errors, and drive the one-shot
// retry.
func (w *Workflow) Run(ctx context.Context, doc *pdf.Document, sch *schema.Schema, prior *Result, feedback string) (*Result, error) {
	if prior == nil && feedback != "" {
		return nil, fmt.Errorf("%w: feedback without a prior result", ErrInvalidInput)
	}
	if prior != nil && feedback == "" {
		return nil, fmt.Errorf("%w: prior result without feedback", ErrInvalidInput)
	}
	if sch == nil || sch.Len() == 0 {
		return nil, fmt.Errorf("%w: schema has no fields", ErrInvalidInput)
	}
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrInvalidInput)
	}

	feedbackRound := prior != nil
	round := 1
	if feedbackRound {
		round = prior.Round + 1
	}

	req := &Request{Document: doc, Schema: sch, Prior: prior, Feedback: feedback}

	var (
		result  *Result
		report  schema.Report
		retried bool
	)

	state := StateStart
	for state != StateDone {
		switch state {
		case StateStart:
			state = StateExtracting

		case StateExtracting:
			r, err := w.engine.Extract(ctx, req)
			if err != nil {
				return nil, err
			}
			result = r
			state = StateValidating

		case StateValidating:
			report = sch.Validate(result.FieldMap())
			if !report.Valid && !feedbackRound && !retried {
				state = StateRetrying
			} else {
				state = StateDone
			}

		case StateRetrying:
			retried = true
			w.logger.Info("validation failed, retrying extraction once",
				"round", round, "problems", len(report.Problems))
			state = StateExtracting
		}
	}

	result.Valid = report.Valid
	result.Problems = report.Problems
	result.Round = round
	result.Feedback = feedback
	result.NeedsReview = !report.Valid || w.hasLowConfidence(sch, result)
	result.CreatedAt = time.Now().UTC()

	w.logger.Info("extraction round complete",
		"round", round,
		"valid", result.Valid,
		"needs_review", result.NeedsReview,
		"retried", retried,
		"feedback_applied", feedbackRound,
	)
	return result, nil
}

// hasLowConfidence reports whether any required field sits below the review
// threshold.
func (w *Workflow) hasLowConfidence(sch *schema.Schema, result *Result) bool {
	for _, name := range sch.RequiredNames() {
		if f, ok := result.Field(name); ok && f.Confidence < w.threshold {
			return true
		}
	}
	return false
}
