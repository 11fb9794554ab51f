// Package revision tracks the last draft revision each session has written,
// so concurrent edits to the same draft surface as a warning instead of going
// unnoticed. Last write still wins; the tracker only makes the overwrite
// visible.
package revision

import (
	"context"
	"sync"
	"time"
)

// Tracker records the revision produced by each successful draft write and
// reports whether a write stomped on somebody else's.
type Tracker interface {
	// Observe records that actorID wrote the given revision of the draft.
	// It returns true when the previous revision on record was written by a
	// different actor, meaning this write overwrote changes the actor never
	// saw.
	Observe(ctx context.Context, draftID, actorID string, rev int64) (stale bool, err error)

	// Forget drops all tracking state for a draft (after publish or abandon)
	Forget(ctx context.Context, draftID string) error

	Close() error
}

type entry struct {
	actorID  string
	revision int64
	seenAt   time.Time
}

// MemoryTracker is an in-process Tracker for single-instance deployments and
// tests.
type MemoryTracker struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewMemoryTracker creates an empty in-memory tracker
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{entries: make(map[string]entry)}
}

// Observe implements Tracker
func (t *MemoryTracker) Observe(_ context.Context, draftID, actorID string, rev int64) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.entries[draftID]
	t.entries[draftID] = entry{actorID: actorID, revision: rev, seenAt: time.Now()}

	if !ok {
		return false, nil
	}
	return prev.actorID != actorID && prev.revision < rev, nil
}

// Forget implements Tracker
func (t *MemoryTracker) Forget(_ context.Context, draftID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, draftID)
	return nil
}

// Close implements Tracker
func (t *MemoryTracker) Close() error {
	return nil
}
