package orchestrator

import (
	"time"

	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/policy/engine"
)

// Observer receives orchestration events. The audit recorder and the
// metrics collector plug in here; observers must be fast or hand off to
// their own workers, because they run on the turn's critical path.
type Observer interface {
	// ObserveDecision is called once per authorization decision.
	ObserveDecision(sessionID string, req engine.Request, d engine.Decision)

	// ObserveInvocation is called once per executed or failed action
	// invocation. Denied actions never reach it.
	ObserveInvocation(sessionID, action string, outcome conversation.OutcomeStatus, elapsed time.Duration)

	// ObserveTurn is called once per completed Advance call. bounded
	// reports whether the iteration limit forced the answer.
	ObserveTurn(sessionID string, iterations int, bounded bool)
}

// multiObserver fans events out to several observers.
type multiObserver []Observer

func (m multiObserver) ObserveDecision(sessionID string, req engine.Request, d engine.Decision) {
	for _, o := range m {
		o.ObserveDecision(sessionID, req, d)
	}
}

func (m multiObserver) ObserveInvocation(sessionID, action string, outcome conversation.OutcomeStatus, elapsed time.Duration) {
	for _, o := range m {
		o.ObserveInvocation(sessionID, action, outcome, elapsed)
	}
}

func (m multiObserver) ObserveTurn(sessionID string, iterations int, bounded bool) {
	for _, o := range m {
		o.ObserveTurn(sessionID, iterations, bounded)
	}
}
