package engine

import (
	"mercator-hq/hermes/pkg/identity"
)

// Request is a single authorization question: may this identity perform
// this action with these arguments. It is produced per requested action and
// consumed exactly once by Decide.
type Request struct {
	// Action is the name of the requested action.
	Action string

	// Context identifies the requester and the affected target, if any.
	Context identity.Context

	// Arguments are the action's arguments, available to predicates that
	// inspect them.
	Arguments map[string]any
}

// Decision is the engine's verdict for one request.
type Decision struct {
	// Allowed reports whether the action may execute.
	Allowed bool

	// MatchedRule is the name of the rule whose condition decided the
	// outcome. Empty for a default deny.
	MatchedRule string

	// Reason explains the decision in plain language. It is fed back into
	// the conversation on denial, so it is written for the reasoner to
	// relay, not for operators.
	Reason string
}
