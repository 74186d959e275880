package audit

import (
	"context"
	"time"
)

// Record kinds.
const (
	KindDecision   = "decision"
	KindInvocation = "invocation"
	KindTurn       = "turn"
)

// Record is one audit trail entry. Kind determines which fields are
// populated beyond the identity block.
type Record struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	RecordedAt time.Time `json:"recorded_at"`

	// Identity of the requester at the time of the event.
	RequesterID    int64  `json:"requester_id"`
	RequesterEmail string `json:"requester_email,omitempty"`
	RequesterRole  string `json:"requester_role,omitempty"`

	// Decision fields.
	Action      string `json:"action,omitempty"`
	TargetID    int64  `json:"target_id,omitempty"`
	Allowed     bool   `json:"allowed,omitempty"`
	MatchedRule string `json:"matched_rule,omitempty"`
	Reason      string `json:"reason,omitempty"`

	// Invocation fields.
	Outcome    string `json:"outcome,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`

	// Turn fields.
	Iterations int  `json:"iterations,omitempty"`
	Bounded    bool `json:"bounded,omitempty"`
}

// Query defines filter parameters for reading audit records.
type Query struct {
	SessionID string     `json:"session_id,omitempty"`
	Kind      string     `json:"kind,omitempty"`
	Action    string     `json:"action,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Storage is the interface audit storage backends implement.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists one record.
	Store(ctx context.Context, record *Record) error

	// Query returns records matching the filters, newest first.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// DeleteBefore removes records recorded before the cutoff and returns
	// how many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes the n oldest records and returns how many were
	// removed.
	DeleteOldest(ctx context.Context, n int64) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}
