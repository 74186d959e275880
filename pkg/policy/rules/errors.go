package rules

import (
	"fmt"
	"strings"
)

// LoadError represents a failure to read a rule file from disk.
type LoadError struct {
	// FilePath is the path to the file that failed to load.
	FilePath string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load rule file %q: %v", e.FilePath, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError represents a YAML parsing failure in a rule file.
type ParseError struct {
	// FilePath is the path to the file that failed to parse.
	FilePath string

	// Cause is the underlying parser error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse rule file %q: %v", e.FilePath, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError reports a single semantic defect in a rule.
type ValidationError struct {
	// RuleName is the name of the offending rule (may be empty when the
	// name itself is the problem).
	RuleName string

	// Field is the rule field that failed validation.
	Field string

	// Message describes the defect.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.RuleName != "" {
		return fmt.Sprintf("rule %q: %s: %s", e.RuleName, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every defect found in a rule set so that
// authors can fix a file in one pass instead of replaying load failures.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return "rule validation failed: " + e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("rule validation failed with %d errors:\n  %s", len(e), strings.Join(msgs, "\n  "))
}
