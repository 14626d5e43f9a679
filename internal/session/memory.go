package session

import (
	"context"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/fieldlens/fieldlens/internal/extraction"
	"github.com/fieldlens/fieldlens/internal/schema"
)

const (
	// DefaultTTL is how long an idle session lives before expiry.
	DefaultTTL = 2 * time.Hour

	defaultCleanupInterval = 10 * time.Minute
)

// record wraps a session with its in-flight marker. The marker lives next to
// the session so expiry evicts both together.
type record struct {
	sess *Session
	busy bool
}

// MemoryStore is an in-memory Store with TTL-based expiry. Each mutating
// operation refreshes the session's TTL, so sessions expire only after
// sitting idle.
type MemoryStore struct {
	cache *gocache.Cache
	ttl   time.Duration

	// mu guards every record access: busy-marker transitions are a
	// check-then-set go-cache cannot make atomic, and Append/SetSchema
	// mutate the shared Session that Get/List snapshot.
	mu sync.Mutex
}

// NewMemoryStore creates a store whose sessions expire after ttl of
// inactivity. ttl <= 0 uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		cache: gocache.New(ttl, defaultCleanupInterval),
		ttl:   ttl,
	}
}

// Create stores a new session.
func (m *MemoryStore) Create(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.cache.Add(sess.ID, &record{sess: sess}, m.ttl); err != nil {
		return ErrExists
	}
	return nil
}

// Get returns a snapshot of the session. The returned value shares the
// document and result pointers (both immutable) but owns its history slice,
// so a concurrent Append cannot shift it underfoot.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return snapshot(rec.sess), nil
}

// SetSchema records the schema used for subsequent rounds.
func (m *MemoryStore) SetSchema(_ context.Context, id string, sch *schema.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.get(id)
	if err != nil {
		return err
	}
	rec.sess.Schema = sch
	m.touch(id, rec)
	return nil
}

// Append adds a result snapshot to the session's history.
func (m *MemoryStore) Append(_ context.Context, id string, res *extraction.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.get(id)
	if err != nil {
		return err
	}
	rec.sess.History = append(rec.sess.History, res.Clone())
	m.touch(id, rec)
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.get(id); err != nil {
		return err
	}
	m.cache.Delete(id)
	return nil
}

// List returns all live sessions ordered by creation time.
func (m *MemoryStore) List(_ context.Context) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.cache.Items()
	sessions := make([]*Session, 0, len(items))
	for _, item := range items {
		if rec, ok := item.Object.(*record); ok {
			sessions = append(sessions, snapshot(rec.sess))
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Acquire marks the session as having a run in flight.
func (m *MemoryStore) Acquire(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.get(id)
	if err != nil {
		return err
	}
	if rec.busy {
		return ErrBusy
	}
	rec.busy = true
	m.touch(id, rec)
	return nil
}

// Release clears the in-flight marker.
func (m *MemoryStore) Release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, err := m.get(id); err == nil {
		rec.busy = false
	}
}

func (m *MemoryStore) get(id string) (*record, error) {
	v, found := m.cache.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	rec, ok := v.(*record)
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// touch refreshes the TTL after activity.
func (m *MemoryStore) touch(id string, rec *record) {
	m.cache.Set(id, rec, m.ttl)
}

func snapshot(sess *Session) *Session {
	cp := *sess
	cp.History = make([]*extraction.Result, len(sess.History))
	copy(cp.History, sess.History)
	return &cp
}

// Verify interface
var _ Store = (*MemoryStore)(nil)
