package conversation

import (
	"sync"
	"time"

	"mercator-hq/hermes/pkg/identity"
)

// Session is one user's ongoing conversation. Its message log is append
// only: messages are never rewritten, removed, or reordered.
type Session struct {
	// ID uniquely identifies the session.
	ID string

	// Identity is the requester context supplied at session start.
	Identity identity.Context

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// turnMu serializes whole turns. The orchestrator holds it across a
	// full Advance call so two callers cannot interleave within one
	// session.
	turnMu sync.Mutex

	// mu protects the fields below.
	mu             sync.RWMutex
	messages       []Message
	actionsInvoked []string
}

// NewSession creates an empty session.
func NewSession(id string, ic identity.Context) *Session {
	return &Session{
		ID:        id,
		Identity:  ic,
		CreatedAt: time.Now(),
	}
}

// LockTurn acquires the session's turn lock. Callers must pair it with
// UnlockTurn.
func (s *Session) LockTurn() { s.turnMu.Lock() }

// UnlockTurn releases the session's turn lock.
func (s *Session) UnlockTurn() { s.turnMu.Unlock() }

// Append appends messages to the log. Appending is the only mutation the
// log supports.
func (s *Session) Append(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
}

// Messages returns a copy of the full message log in order.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the log.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// RecordInvocation records that an action was invoked for this session.
func (s *Session) RecordInvocation(action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionsInvoked = append(s.actionsInvoked, action)
}

// ActionsInvoked returns a copy of the ordered invocation record.
func (s *Session) ActionsInvoked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.actionsInvoked))
	copy(out, s.actionsInvoked)
	return out
}
