package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fieldlens/fieldlens/internal/extraction"
	"github.com/fieldlens/fieldlens/internal/providers"
	"github.com/fieldlens/fieldlens/internal/schema"
)

func newTestManager(t *testing.T, mock *providers.MockClient) (*Manager, Store) {
	t.Helper()
	store := NewMemoryStore(time.Hour)
	engine := extraction.NewEngine(mock, extraction.EngineConfig{Model: "test-model"}, nil)
	workflow := extraction.NewWorkflow(engine, extraction.WorkflowConfig{}, nil)
	return NewManager(store, workflow, nil), store
}

func invoiceSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.New([]schema.Field{
		{Name: "total", Type: schema.TypeString, Required: true},
	})
	if err != nil {
		t.Fatalf("schema.New failed: %v", err)
	}
	return sch
}

func goodResponse(total string) json.RawMessage {
	return json.RawMessage(`{
		"fields": {
			"total": {"value": "` + total + `", "confidence": 0.95, "rationale": "printed total"}
		},
		"extraction_notes": null
	}`)
}

func TestManagerExtract(t *testing.T) {
	ctx := context.Background()
	mock := providers.NewMockClient()
	mock.Script(goodResponse("10.00"))
	mgr, store := newTestManager(t, mock)

	if err := store.Create(ctx, testSession("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	result, err := mgr.Extract(ctx, "s1", invoiceSchema(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !result.Valid {
		t.Errorf("result not valid: %+v", result.Problems)
	}
	if result.Round != 1 {
		t.Errorf("Round = %d, want 1", result.Round)
	}
	if f, ok := result.Field("total"); !ok || f.Value != "10.00" {
		t.Errorf("total = %+v, want 10.00", f)
	}

	sess, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.Rounds() != 1 {
		t.Errorf("history has %d rounds, want 1", sess.Rounds())
	}
	if sess.Schema == nil {
		t.Error("schema not recorded on session")
	}

	// The run guard must be released after the round.
	if err := store.Acquire("s1"); err != nil {
		t.Errorf("Acquire after Extract failed: %v", err)
	}
	store.Release("s1")
}

func TestManagerExtractUnknownSession(t *testing.T) {
	mock := providers.NewMockClient()
	mgr, _ := newTestManager(t, mock)

	_, err := mgr.Extract(context.Background(), "missing", invoiceSchema(t))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("model was called %d times for an unknown session", mock.RequestCount())
	}
}

func TestManagerExtractBusySession(t *testing.T) {
	ctx := context.Background()
	mock := providers.NewMockClient()
	mock.Script(goodResponse("10.00"))
	mgr, store := newTestManager(t, mock)

	if err := store.Create(ctx, testSession("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Acquire("s1"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer store.Release("s1")

	if _, err := mgr.Extract(ctx, "s1", invoiceSchema(t)); !errors.Is(err, ErrBusy) {
		t.Errorf("got %v, want ErrBusy", err)
	}
}

func TestManagerExtractEngineFailure(t *testing.T) {
	ctx := context.Background()
	mock := providers.NewMockClient()
	mock.ShouldFail = true
	mgr, store := newTestManager(t, mock)

	if err := store.Create(ctx, testSession("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := mgr.Extract(ctx, "s1", invoiceSchema(t))
	if !errors.Is(err, extraction.ErrExtractionFailed) {
		t.Fatalf("got %v, want ErrExtractionFailed", err)
	}

	// A failed round must not touch history or hold the guard.
	sess, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.Rounds() != 0 {
		t.Errorf("history has %d rounds after a failed run, want 0", sess.Rounds())
	}
	if err := store.Acquire("s1"); err != nil {
		t.Errorf("Acquire after failed run: %v", err)
	}
	store.Release("s1")
}

func TestManagerSubmitFeedback(t *testing.T) {
	ctx := context.Background()
	mock := providers.NewMockClient()
	mock.Script(goodResponse("10.00"), goodResponse("12.50"))
	mgr, store := newTestManager(t, mock)

	if err := store.Create(ctx, testSession("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := mgr.Extract(ctx, "s1", invoiceSchema(t)); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	result, err := mgr.SubmitFeedback(ctx, "s1", "the total includes tax, use 12.50")
	if err != nil {
		t.Fatalf("SubmitFeedback failed: %v", err)
	}
	if result.Round != 2 {
		t.Errorf("Round = %d, want 2", result.Round)
	}
	if !result.FeedbackApplied() {
		t.Error("FeedbackApplied() = false, want true")
	}
	if f, _ := result.Field("total"); f.Value != "12.50" {
		t.Errorf("total = %v, want 12.50", f.Value)
	}

	sess, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.Rounds() != 2 {
		t.Errorf("history has %d rounds, want 2", sess.Rounds())
	}
	if sess.Latest().Round != 2 {
		t.Errorf("latest round = %d, want 2", sess.Latest().Round)
	}
}

func TestManagerSubmitFeedbackGuards(t *testing.T) {
	ctx := context.Background()
	mock := providers.NewMockClient()
	mock.Script(goodResponse("10.00"))
	mgr, store := newTestManager(t, mock)

	if err := store.Create(ctx, testSession("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("no prior extraction", func(t *testing.T) {
		_, err := mgr.SubmitFeedback(ctx, "s1", "fix the total")
		if !errors.Is(err, extraction.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("empty feedback", func(t *testing.T) {
		if _, err := mgr.Extract(ctx, "s1", invoiceSchema(t)); err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		_, err := mgr.SubmitFeedback(ctx, "s1", "")
		if !errors.Is(err, extraction.ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := mgr.SubmitFeedback(ctx, "missing", "fix the total")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})
}
