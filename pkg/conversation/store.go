package conversation

import (
	"sync"

	"github.com/google/uuid"

	"mercator-hq/hermes/pkg/identity"
)

// Store is an in-memory session store. Sessions live for the process
// lifetime unless deleted; durable persistence is a caller concern.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session with the given ID, creating it with the
// supplied identity on first use. The identity of an existing session is
// not overwritten. created reports whether a new session was made.
func (st *Store) GetOrCreate(id string, ic identity.Context) (s *Session, created bool) {
	if id == "" {
		id = uuid.NewString()
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s, false
	}
	s = NewSession(id, ic)
	st.sessions[id] = s
	return s, true
}

// Get returns the session with the given ID, or nil.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// Delete removes a session. It reports whether the session existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// List returns all sessions, optionally filtered by requester email.
func (st *Store) List(requesterEmail string) []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		if requesterEmail != "" && s.Identity.RequesterEmail != requesterEmail {
			continue
		}
		out = append(out, s)
	}
	return out
}
