package conversation

import (
	"time"
)

// MessageKind discriminates the message variant.
type MessageKind string

const (
	// KindUser is a message typed by the user.
	KindUser MessageKind = "user"

	// KindReasoner is the reasoner's output: free text, a batch of
	// requested actions, or both.
	KindReasoner MessageKind = "reasoner"

	// KindActionResult is the outcome of one requested action.
	KindActionResult MessageKind = "action_result"
)

// OutcomeStatus discriminates how a requested action concluded.
type OutcomeStatus string

const (
	// OutcomeSuccess means the action executed and produced a payload.
	OutcomeSuccess OutcomeStatus = "success"

	// OutcomeDenied means authorization refused the action. The registry
	// was never invoked.
	OutcomeDenied OutcomeStatus = "denied"

	// OutcomeFailed means the action executed and raised an error.
	OutcomeFailed OutcomeStatus = "failed"
)

// ActionRequest is one action the reasoner asked to execute.
type ActionRequest struct {
	// Name is the action name, resolvable in the action registry.
	Name string

	// Arguments are the action's arguments as emitted by the reasoner.
	Arguments map[string]any

	// CallID correlates this request with its eventual result. Unique
	// within a reasoner message.
	CallID string
}

// Outcome is the tagged result of one action request. The status tag keeps
// denials and failures unmistakable for success: the reasoner must never be
// able to read an error as a payload.
type Outcome struct {
	// Status tags the variant.
	Status OutcomeStatus

	// Payload is the action's result. Set only on success.
	Payload any

	// Reason is the authorization denial reason. Set only on denial.
	Reason string

	// Error describes the operation failure. Set only on failure.
	Error string
}

// Message is one entry in a session's append-only log.
type Message struct {
	// Kind tags the variant.
	Kind MessageKind

	// Text is the user's input or the reasoner's prose, depending on Kind.
	Text string

	// RequestedActions is the ordered batch of actions a reasoner message
	// asked for. Empty for terminal answers.
	RequestedActions []ActionRequest

	// CallID links an action result back to its request.
	CallID string

	// Outcome carries the action result.
	Outcome Outcome

	// Timestamp is when the message was appended.
	Timestamp time.Time
}

// NewUserMessage builds a user message.
func NewUserMessage(text string) Message {
	return Message{Kind: KindUser, Text: text, Timestamp: time.Now()}
}

// NewReasonerMessage builds a reasoner message.
func NewReasonerMessage(text string, requested []ActionRequest) Message {
	return Message{Kind: KindReasoner, Text: text, RequestedActions: requested, Timestamp: time.Now()}
}

// NewSuccessResult builds an action result carrying a payload.
func NewSuccessResult(callID string, payload any) Message {
	return Message{
		Kind:      KindActionResult,
		CallID:    callID,
		Outcome:   Outcome{Status: OutcomeSuccess, Payload: payload},
		Timestamp: time.Now(),
	}
}

// NewDeniedResult builds an action result for an authorization denial.
func NewDeniedResult(callID, reason string) Message {
	return Message{
		Kind:      KindActionResult,
		CallID:    callID,
		Outcome:   Outcome{Status: OutcomeDenied, Reason: reason},
		Timestamp: time.Now(),
	}
}

// NewFailedResult builds an action result for an operation failure.
func NewFailedResult(callID string, err error) Message {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Message{
		Kind:      KindActionResult,
		CallID:    callID,
		Outcome:   Outcome{Status: OutcomeFailed, Error: msg},
		Timestamp: time.Now(),
	}
}
