package actions

import "fmt"

// NotFoundError reports a request for an action the registry does not know.
type NotFoundError struct {
	// Action is the unknown action name.
	Action string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

// OperationError wraps a failure raised by an action handler. The
// orchestrator converts it into a failed action result instead of
// propagating it.
type OperationError struct {
	// Action is the action that failed.
	Action string

	// Cause is the handler's error.
	Cause error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("action %q failed: %v", e.Action, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// DuplicateError reports an attempt to register an action name twice.
type DuplicateError struct {
	// Action is the duplicated action name.
	Action string
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("action %q already registered", e.Action)
}
