package reasoner

import (
	"context"
	"fmt"
	"sync"

	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/identity"
)

// Scripted replays a fixed sequence of decisions. It is used in tests and
// by the offline demo mode of the CLI.
type Scripted struct {
	mu    sync.Mutex
	steps []Decision
	next  int
}

// NewScripted creates a scripted reasoner replaying the given decisions in
// order.
func NewScripted(steps ...Decision) *Scripted {
	return &Scripted{steps: steps}
}

// Decide implements Reasoner. Consulting an exhausted script is an error,
// mirroring an unreachable reasoner.
func (s *Scripted) Decide(_ context.Context, _ []conversation.Message, _ identity.Context) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.steps) {
		return Decision{}, fmt.Errorf("scripted reasoner exhausted after %d decisions", len(s.steps))
	}
	d := s.steps[s.next]
	s.next++
	return d, nil
}

// Calls returns how many decisions have been consumed.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
