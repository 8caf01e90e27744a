package store

import (
	"sync"

	"timetracker/internal/core"
)

// CommitFunc persists a candidate snapshot. Returning an error aborts the
// change and leaves the holder untouched.
type CommitFunc func(next core.Snapshot) error

// Holder owns the current snapshot of a session. Commands are applied one
// at a time; readers always observe a complete snapshot.
type Holder struct {
	mu      sync.Mutex
	current core.Snapshot
	version int64
}

func NewHolder(initial core.Snapshot) *Holder {
	return &Holder{current: initial.Normalized()}
}

// Snapshot returns the current snapshot. Callers must treat it as read-only.
func (h *Holder) Snapshot() core.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Version increases by one on every committed change.
func (h *Holder) Version() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}

// Current returns the snapshot together with its version.
func (h *Holder) Current() (core.Snapshot, int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.version
}

// Dispatch applies cmd to the current snapshot, hands the result to commit
// and only then makes it current.
func (h *Holder) Dispatch(cmd Command, commit CommitFunc) (core.Snapshot, int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, err := Apply(h.current, cmd)
	if err != nil {
		return h.current, h.version, err
	}
	return h.commit(next, commit)
}

// Replace swaps the whole snapshot, as an import or a full save does.
func (h *Holder) Replace(next core.Snapshot, commit CommitFunc) (core.Snapshot, int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.commit(next.Normalized(), commit)
}

func (h *Holder) commit(next core.Snapshot, commit CommitFunc) (core.Snapshot, int64, error) {
	if commit != nil {
		if err := commit(next); err != nil {
			return h.current, h.version, err
		}
	}
	h.current = next
	h.version++
	return h.current, h.version, nil
}
