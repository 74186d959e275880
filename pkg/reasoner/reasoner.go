package reasoner

import (
	"context"
	"fmt"

	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/identity"
)

// DecisionKind discriminates the reasoner's output variant.
type DecisionKind string

const (
	// KindFinalAnswer means the reasoner produced the user-facing answer
	// and the turn is over.
	KindFinalAnswer DecisionKind = "final_answer"

	// KindRequestedActions means the reasoner wants actions executed
	// before it can answer.
	KindRequestedActions DecisionKind = "requested_actions"
)

// Decision is the reasoner's tagged output for one consultation.
type Decision struct {
	// Kind tags the variant.
	Kind DecisionKind

	// Answer is the terminal answer text. Set only for final answers.
	Answer string

	// Requested is the ordered, non-empty action batch. Set only for
	// requested actions.
	Requested []conversation.ActionRequest
}

// FinalAnswer builds a terminal decision.
func FinalAnswer(text string) Decision {
	return Decision{Kind: KindFinalAnswer, Answer: text}
}

// RequestActions builds an action-requesting decision.
func RequestActions(reqs ...conversation.ActionRequest) Decision {
	return Decision{Kind: KindRequestedActions, Requested: reqs}
}

// Validate checks the structural invariants the orchestrator relies on:
// a requested-actions decision carries at least one action, and call IDs
// are present and unique within the batch.
func (d Decision) Validate() error {
	switch d.Kind {
	case KindFinalAnswer:
		return nil
	case KindRequestedActions:
		if len(d.Requested) == 0 {
			return fmt.Errorf("requested_actions decision with empty batch")
		}
		seen := make(map[string]bool, len(d.Requested))
		for _, req := range d.Requested {
			if req.Name == "" {
				return fmt.Errorf("requested action with empty name")
			}
			if req.CallID == "" {
				return fmt.Errorf("requested action %q missing call ID", req.Name)
			}
			if seen[req.CallID] {
				return fmt.Errorf("duplicate call ID %q in action batch", req.CallID)
			}
			seen[req.CallID] = true
		}
		return nil
	default:
		return fmt.Errorf("unknown decision kind %q", d.Kind)
	}
}

// Reasoner is the opaque decision-making function driving conversation
// turns. Implementations may block on network calls; they must honor
// context cancellation.
type Reasoner interface {
	// Decide reads the history and identity and returns the next decision.
	Decide(ctx context.Context, history []conversation.Message, ic identity.Context) (Decision, error)
}
