package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fieldlens/fieldlens/internal/extraction"
	"github.com/fieldlens/fieldlens/internal/schema"
)

// Manager is the session-facing entry point into the extraction workflow.
// It resolves a session id into document + schema + prior result, holds the
// session's run guard for the duration of the workflow, and appends the
// snapshot once the round completes. A failed round leaves history untouched.
type Manager struct {
	store    Store
	workflow *extraction.Workflow
	logger   *slog.Logger
}

// NewManager creates a manager over the given store and workflow.
func NewManager(store Store, workflow *extraction.Workflow, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, workflow: workflow, logger: logger}
}

// Extract runs an initial extraction round for the session and stores the
// snapshot. The schema also becomes the session's schema for later feedback
// rounds. A concurrent run on the same session fails with ErrBusy.
func (m *Manager) Extract(ctx context.Context, sessionID string, sch *schema.Schema) (*extraction.Result, error) {
	if err := m.store.Acquire(sessionID); err != nil {
		return nil, err
	}
	defer m.store.Release(sessionID)

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := m.store.SetSchema(ctx, sessionID, sch); err != nil {
		return nil, err
	}

	result, err := m.workflow.Run(ctx, sess.Document, sch, nil, "")
	if err != nil {
		return nil, err
	}

	if err := m.store.Append(ctx, sessionID, result); err != nil {
		return nil, err
	}

	m.logger.Info("extraction stored",
		"session", sessionID, "round", result.Round, "valid", result.Valid)
	return result, nil
}

// SubmitFeedback re-enters the workflow with the session's latest result and
// the human's correction text, producing the next round. Fails with
// ErrInvalidInput when the session has no prior extraction or the feedback
// is empty.
func (m *Manager) SubmitFeedback(ctx context.Context, sessionID, feedback string) (*extraction.Result, error) {
	if feedback == "" {
		return nil, fmt.Errorf("%w: feedback text is empty", extraction.ErrInvalidInput)
	}

	if err := m.store.Acquire(sessionID); err != nil {
		return nil, err
	}
	defer m.store.Release(sessionID)

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	prior := sess.Latest()
	if prior == nil {
		return nil, fmt.Errorf("%w: session has no prior extraction", extraction.ErrInvalidInput)
	}
	if sess.Schema == nil {
		return nil, fmt.Errorf("%w: session has no schema", extraction.ErrInvalidInput)
	}

	result, err := m.workflow.Run(ctx, sess.Document, sess.Schema, prior, feedback)
	if err != nil {
		return nil, err
	}

	if err := m.store.Append(ctx, sessionID, result); err != nil {
		return nil, err
	}

	m.logger.Info("feedback round stored",
		"session", sessionID, "round", result.Round, "valid", result.Valid)
	return result, nil
}
