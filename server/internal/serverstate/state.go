package serverstate

import "sync/atomic"

// Status values reported by the server.
const (
	StatusNotReady = "not_ready"
	StatusReady    = "ready"
	StatusDraining = "draining"
	StatusUnknown  = "unknown"
)

// State holds the server status and draining flag. All fields are updated
// together so callers always observe a consistent snapshot.
type State struct {
	Status   string `json:"status"`
	Draining bool   `json:"draining"`
}

// Store defines how the server state is persisted. Implementations may keep
// state in memory or in an external service such as Redis so several
// replicas share it.
type Store interface {
	Load() State
	Store(State)
}

// memoryStore implements Store using an atomic.Value. It is the default
// strategy and is safe for concurrent use within a single process.
type memoryStore struct {
	v atomic.Value
}

// NewMemoryStore returns a memory-backed Store initialized to "not_ready".
func NewMemoryStore() Store {
	ms := &memoryStore{}
	ms.v.Store(State{Status: StatusNotReady})
	return ms
}

func (m *memoryStore) Load() State {
	if st, ok := m.v.Load().(State); ok {
		return st
	}
	return State{Status: StatusUnknown}
}

func (m *memoryStore) Store(s State) {
	m.v.Store(s)
}

// Tracker reads and updates server state through a Store.
type Tracker struct {
	store Store
}

// NewTracker returns a Tracker over store, or over a fresh memory store when
// store is nil.
func NewTracker(store Store) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{store: store}
}

// SetStatus updates the server status string. It is ignored once draining
// has started so a late "ready" cannot undo a drain.
func (t *Tracker) SetStatus(status string) {
	st := t.store.Load()
	if st.Draining {
		return
	}
	st.Status = status
	t.store.Store(st)
}

// Status returns the current server status.
func (t *Tracker) Status() string {
	return t.store.Load().Status
}

// StartDrain marks the server as draining.
func (t *Tracker) StartDrain() {
	t.store.Store(State{Status: StatusDraining, Draining: true})
}

// IsDraining reports whether the server is draining.
func (t *Tracker) IsDraining() bool {
	return t.store.Load().Draining
}

// Ready reports whether the server accepts new work.
func (t *Tracker) Ready() bool {
	st := t.store.Load()
	return st.Status == StatusReady && !st.Draining
}

// Snapshot returns the full state.
func (t *Tracker) Snapshot() State {
	return t.store.Load()
}
