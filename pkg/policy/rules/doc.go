// Package rules defines the declarative authorization rule model and its
// YAML loader.
//
// A rule grants or denies a set of named actions, guarded by a named
// condition that the policy engine dereferences against a fixed predicate
// table. Rule sets are immutable once built: evaluation never mutates them,
// and hot reload replaces the whole set atomically.
//
// # Rule file format
//
//	rules:
//	  - name: self_view
//	    description: Employees can view their own records
//	    effect: allow
//	    priority: 10
//	    actions: [get_employee, get_holiday_balance]
//	    condition: is_self
//
// Rules are matched per action: only rules whose actions set contains the
// requested action participate in a decision. Among those, higher priority
// wins; equal priorities are broken by declaration order. Rule authors rely
// on that tie-break, so the sort applied at load time is stable.
//
// # Validation
//
// Loading fails (and an already-active rule set stays in force) when a rule
// names an unknown condition, has an empty actions set, duplicates another
// rule's name, or uses an effect other than "allow" or "deny".
package rules
