package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fieldlens/fieldlens/internal/providers"
	"github.com/fieldlens/fieldlens/internal/schema"
)

func newTestWorkflow(mock *providers.MockClient) *Workflow {
	return NewWorkflow(newTestEngine(mock), WorkflowConfig{}, nil)
}

func validResponse() json.RawMessage {
	return json.RawMessage(`{
		"fields": {
			"vendor": {"value": "Acme Corp", "confidence": 0.95},
			"total": {"value": 10.0, "confidence": 0.9}
		}
	}`)
}

// total comes back as a string, violating the number type.
func invalidResponse() json.RawMessage {
	return json.RawMessage(`{
		"fields": {
			"vendor": {"value": "Acme Corp", "confidence": 0.95},
			"total": {"value": "ten dollars", "confidence": 0.6}
		}
	}`)
}

func invoiceFields(t *testing.T) *schema.Schema {
	t.Helper()
	return mustSchema(t,
		schema.Field{Name: "vendor", Type: schema.TypeString, Required: true},
		schema.Field{Name: "total", Type: schema.TypeNumber, Required: true},
	)
}

func TestWorkflowCleanRound(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Script(validResponse())

	result, err := newTestWorkflow(mock).Run(context.Background(), testDocument(), invoiceFields(t), nil, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.Valid {
		t.Errorf("Valid = false, problems: %+v", result.Problems)
	}
	if result.Round != 1 {
		t.Errorf("Round = %d, want 1", result.Round)
	}
	if result.NeedsReview {
		t.Error("NeedsReview = true for a clean high-confidence round")
	}
	if result.FeedbackApplied() {
		t.Error("FeedbackApplied = true on an initial round")
	}
	if mock.RequestCount() != 1 {
		t.Errorf("model called %d times, want 1", mock.RequestCount())
	}
}

func TestWorkflowRetriesOnceOnValidationFailure(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Script(invalidResponse(), validResponse())

	result, err := newTestWorkflow(mock).Run(context.Background(), testDocument(), invoiceFields(t), nil, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if mock.RequestCount() != 2 {
		t.Fatalf("model called %d times, want 2 (one retry)", mock.RequestCount())
	}
	if !result.Valid {
		t.Errorf("retry result not valid, problems: %+v", result.Problems)
	}
	if result.Round != 1 {
		t.Errorf("Round = %d, want 1; a retry stays within its round", result.Round)
	}
}

func TestWorkflowInvalidAfterRetryReturnedNotSuppressed(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Script(invalidResponse(), invalidResponse())

	result, err := newTestWorkflow(mock).Run(context.Background(), testDocument(), invoiceFields(t), nil, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if mock.RequestCount() != 2 {
		t.Fatalf("model called %d times, want exactly 2", mock.RequestCount())
	}
	if result.Valid {
		t.Error("Valid = true for a twice-invalid result")
	}
	if !result.NeedsReview {
		t.Error("NeedsReview = false for an invalid result")
	}
	if len(result.Problems) == 0 {
		t.Error("Problems empty; validation detail must survive into the result")
	}
}

func TestWorkflowFeedbackRoundSkipsRetry(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Script(invalidResponse())

	prior := &Result{
		Fields: []FieldValue{
			{Name: "vendor", Value: "Acme Corp", Confidence: 0.95},
			{Name: "total", Value: 10.0, Confidence: 0.9},
		},
		Valid: true,
		Round: 1,
	}

	result, err := newTestWorkflow(mock).Run(context.Background(), testDocument(), invoiceFields(t), prior, "the vendor is wrong")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if mock.RequestCount() != 1 {
		t.Errorf("model called %d times; feedback rounds are single-shot", mock.RequestCount())
	}
	if result.Valid {
		t.Error("Valid = true for an invalid feedback result")
	}
	if result.Round != 2 {
		t.Errorf("Round = %d, want 2", result.Round)
	}
	if !result.FeedbackApplied() {
		t.Error("FeedbackApplied = false on a feedback round")
	}
	if prior.Round != 1 || prior.Feedback != "" {
		t.Errorf("prior mutated: %+v", prior)
	}
}

func TestWorkflowLowConfidenceNeedsReview(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Script(json.RawMessage(`{
		"fields": {
			"vendor": {"value": "Acme Corp", "confidence": 0.95},
			"total": {"value": 10.0, "confidence": 0.4}
		}
	}`))

	result, err := newTestWorkflow(mock).Run(context.Background(), testDocument(), invoiceFields(t), nil, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.Valid {
		t.Fatalf("Valid = false, problems: %+v", result.Problems)
	}
	if !result.NeedsReview {
		t.Error("NeedsReview = false with a required field at confidence 0.4")
	}
}

func TestWorkflowPairingViolations(t *testing.T) {
	wf := newTestWorkflow(providers.NewMockClient())
	sch := invoiceFields(t)
	prior := &Result{Round: 1}

	t.Run("feedback without prior", func(t *testing.T) {
		_, err := wf.Run(context.Background(), testDocument(), sch, nil, "fix it")
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("prior without feedback", func(t *testing.T) {
		_, err := wf.Run(context.Background(), testDocument(), sch, prior, "")
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})
}

func TestWorkflowEngineFailureNoPartialResult(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ShouldFail = true

	result, err := newTestWorkflow(mock).Run(context.Background(), testDocument(), invoiceFields(t), nil, "")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("got %v, want ErrExtractionFailed", err)
	}
	if result != nil {
		t.Errorf("got partial result %+v, want nil", result)
	}
}
