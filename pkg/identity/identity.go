// Package identity defines the identity context attached to every session
// and every authorization request.
//
// The context describes who is asking (requester) and, when an action names
// an affected employee, whose data is being touched (target). Authentication
// happens upstream; the context is supplied by the caller at session start
// and trusted from that point on.
package identity

import "fmt"

// Role is the coarse-grained role of a requester.
type Role string

const (
	// RoleEmployee is the default role with self-scoped access only.
	RoleEmployee Role = "EMPLOYEE"

	// RoleManager grants access to direct reports in addition to self.
	RoleManager Role = "MANAGER"

	// RoleHR grants broad access to employee records.
	RoleHR Role = "HR"

	// RoleFinance grants access to compensation data scoped by cost center.
	RoleFinance Role = "FINANCE"
)

// Context identifies the requester and, optionally, the target of an action.
type Context struct {
	// RequesterID is the employee ID of the person asking.
	RequesterID int64

	// RequesterEmail is the requester's login email.
	RequesterEmail string

	// RequesterRole is the requester's role.
	RequesterRole Role

	// TargetID is the employee affected by the action, if the action's
	// schema marks a target parameter. Zero means no explicit target.
	TargetID int64

	// HasTarget reports whether TargetID was extracted from the request.
	// Conditions that compare requester against target treat an absent
	// target as self-scoped.
	HasTarget bool
}

// WithTarget returns a copy of the context with the target set.
func (c Context) WithTarget(targetID int64) Context {
	c.TargetID = targetID
	c.HasTarget = true
	return c
}

// String returns a compact representation for logs.
func (c Context) String() string {
	if c.HasTarget {
		return fmt.Sprintf("requester=%d role=%s target=%d", c.RequesterID, c.RequesterRole, c.TargetID)
	}
	return fmt.Sprintf("requester=%d role=%s", c.RequesterID, c.RequesterRole)
}
