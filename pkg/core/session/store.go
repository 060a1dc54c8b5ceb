package session

import (
	"sync"

	"github.com/centaurus-ai/roundtable/pkg/core"
)

// Store holds sessions under replace-whole-object semantics. Readers
// always get a clone of the latest snapshot; writers go through Update,
// which re-reads the latest state, applies the mutation and swaps the
// stored object in one step. Partial field writes do not exist.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	watchers map[string][]chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		watchers: make(map[string][]chan struct{}),
	}
}

// Get returns a clone of the latest snapshot for id.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Put replaces (or inserts) the stored session with a clone of s.
func (st *Store) Put(s *Session) {
	st.mu.Lock()
	st.sessions[s.ID] = s.Clone()
	st.notifyLocked(s.ID)
	st.mu.Unlock()
}

// Update re-reads the latest snapshot for id, applies fn to a working
// copy and stores the result atomically. It returns a clone of the new
// state. An error from fn aborts without storing.
func (st *Store) Update(id string, fn func(*Session) error) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur, ok := st.sessions[id]
	if !ok {
		return nil, core.NewNotFoundError("session not found: " + id)
	}
	work := cur.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	st.sessions[id] = work
	st.notifyLocked(id)
	return work.Clone(), nil
}

// List returns clones of all stored sessions.
func (st *Store) List() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s.Clone())
	}
	return out
}

// Delete removes a session and wakes its watchers one last time.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.notifyLocked(id)
	st.mu.Unlock()
}

// Watch returns a channel that receives a signal whenever the session
// changes, plus a cancel func. Signals are coalesced; a slow consumer
// sees at least one pending signal, never a backlog.
func (st *Store) Watch(id string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	st.mu.Lock()
	st.watchers[id] = append(st.watchers[id], ch)
	st.mu.Unlock()

	cancel := func() {
		st.mu.Lock()
		ws := st.watchers[id]
		for i, w := range ws {
			if w == ch {
				st.watchers[id] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
		st.mu.Unlock()
	}
	return ch, cancel
}

func (st *Store) notifyLocked(id string) {
	for _, ch := range st.watchers[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
