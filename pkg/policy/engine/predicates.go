package engine

import (
	"sort"

	"mercator-hq/hermes/pkg/identity"
)

// Directory answers the organizational questions some predicates need.
// pkg/hr provides the production implementation; tests supply fakes.
type Directory interface {
	// IsDirectReport reports whether employeeID reports directly to
	// managerID.
	IsDirectReport(managerID, employeeID int64) (bool, error)

	// HasCostCenterAccess reports whether the finance user identified by
	// email may see the cost center employeeID is billed to.
	HasCostCenterAccess(userEmail string, employeeID int64) (bool, error)
}

// Predicate is a named condition evaluated against the identity context and
// action arguments. Predicates must be pure with respect to the rule set;
// an error means the rule is skipped, not that the request is denied.
type Predicate func(ic identity.Context, args map[string]any) (bool, error)

// Predicates is the fixed condition table rules are validated against.
type Predicates map[string]Predicate

// NewPredicates builds the predicate table. dir may be nil, in which case
// directory-backed predicates never match.
func NewPredicates(dir Directory) Predicates {
	isManager := func(ic identity.Context, _ map[string]any) (bool, error) {
		return ic.RequesterRole == identity.RoleManager || ic.RequesterRole == identity.RoleHR, nil
	}
	isDirectReport := func(ic identity.Context, _ map[string]any) (bool, error) {
		if dir == nil || !ic.HasTarget {
			return false, nil
		}
		return dir.IsDirectReport(ic.RequesterID, ic.TargetID)
	}

	return Predicates{
		// always holds unconditionally. Safe only when the rule's actions
		// set is scoped tightly; the engine adds no safety beyond action
		// filtering.
		"always": func(identity.Context, map[string]any) (bool, error) {
			return true, nil
		},

		// is_self holds when the request has no explicit target or the
		// target is the requester.
		"is_self": func(ic identity.Context, _ map[string]any) (bool, error) {
			return !ic.HasTarget || ic.RequesterID == ic.TargetID, nil
		},

		"is_manager": isManager,

		"is_hr": func(ic identity.Context, _ map[string]any) (bool, error) {
			return ic.RequesterRole == identity.RoleHR, nil
		},

		// is_finance requires the finance role and, when the request names
		// a target, access to that employee's cost center. A request with
		// no target passes the role check alone.
		"is_finance": func(ic identity.Context, _ map[string]any) (bool, error) {
			if ic.RequesterRole != identity.RoleFinance {
				return false, nil
			}
			if !ic.HasTarget {
				return true, nil
			}
			if dir == nil {
				return false, nil
			}
			return dir.HasCostCenterAccess(ic.RequesterEmail, ic.TargetID)
		},

		"is_direct_report": isDirectReport,

		// is_manager_of_target requires both the manager role and a direct
		// reporting line to the target.
		"is_manager_of_target": func(ic identity.Context, args map[string]any) (bool, error) {
			ok, err := isManager(ic, args)
			if err != nil || !ok {
				return false, err
			}
			return isDirectReport(ic, args)
		},
	}
}

// Names returns the sorted condition names, for rule validation and lint
// output.
func (p Predicates) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
