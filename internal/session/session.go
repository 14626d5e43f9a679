// Package session holds per-document extraction sessions: the rendered
// document, the active schema, and the append-only history of extraction
// results. Sessions are independent of each other; within one session at most
// one extraction run may be in flight at a time.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/fieldlens/fieldlens/internal/extraction"
	"github.com/fieldlens/fieldlens/internal/pdf"
	"github.com/fieldlens/fieldlens/internal/schema"
)

// Sentinel errors for session operations.
var (
	ErrNotFound = errors.New("session not found")
	ErrBusy     = errors.New("session has an extraction run in flight")
	ErrExists   = errors.New("session already exists")
)

// Session is one uploaded document and its extraction state. History is
// append-only; each entry is an immutable snapshot.
type Session struct {
	ID           string                `json:"id"`
	Filename     string                `json:"filename"`
	Document     *pdf.Document         `json:"-"`
	DocumentPath string                `json:"-"`
	Schema       *schema.Schema        `json:"-"`
	History      []*extraction.Result  `json:"history,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// Latest returns the most recent result, or nil before the first extraction.
func (s *Session) Latest() *extraction.Result {
	if len(s.History) == 0 {
		return nil
	}
	return s.History[len(s.History)-1]
}

// Rounds returns the number of completed extraction rounds.
func (s *Session) Rounds() int { return len(s.History) }

// Store is keyed session storage. Implementations must make Acquire/Release
// enforce the at-most-one-run-per-session guarantee; everything else only
// needs ordinary map semantics since history is append-only.
type Store interface {
	// Create stores a new session. Fails with ErrExists on id collision.
	Create(ctx context.Context, sess *Session) error

	// Get returns a session snapshot. Fails with ErrNotFound on unknown id.
	Get(ctx context.Context, id string) (*Session, error)

	// SetSchema records the schema for subsequent rounds.
	SetSchema(ctx context.Context, id string, sch *schema.Schema) error

	// Append adds a result snapshot to the session's history.
	Append(ctx context.Context, id string, res *extraction.Result) error

	// Delete removes a session. Fails with ErrNotFound on unknown id.
	Delete(ctx context.Context, id string) error

	// List returns all live sessions.
	List(ctx context.Context) ([]*Session, error)

	// Acquire marks the session as having a run in flight. Fails with
	// ErrBusy if one already is, ErrNotFound on unknown id.
	Acquire(id string) error

	// Release clears the in-flight marker.
	Release(id string)
}
