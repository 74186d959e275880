package rules

import (
	"sort"
	"strconv"
)

// Effect is the outcome a rule produces when its condition matches.
type Effect string

const (
	// EffectAllow permits the action.
	EffectAllow Effect = "allow"

	// EffectDeny explicitly forbids the action. An explicit deny is
	// distinct from the default deny applied when no rule matches: it
	// carries the rule's name and description into the decision reason.
	EffectDeny Effect = "deny"
)

// Valid reports whether the effect is one of the known values.
func (e Effect) Valid() bool {
	return e == EffectAllow || e == EffectDeny
}

// Rule is a single declarative authorization statement.
type Rule struct {
	// Name uniquely identifies the rule within a rule set.
	Name string `yaml:"name"`

	// Description is shown in decision reasons and lint output.
	Description string `yaml:"description"`

	// Effect is "allow" or "deny".
	Effect Effect `yaml:"effect"`

	// Priority orders rules that match the same action. Higher values are
	// evaluated first. Ties fall back to declaration order.
	Priority int `yaml:"priority"`

	// Actions is the non-empty set of action names the rule applies to.
	Actions []string `yaml:"actions"`

	// Condition names a predicate in the engine's predicate table.
	Condition string `yaml:"condition"`

	// order is the zero-based declaration position, recorded at load time
	// for the stable tie-break.
	order int
}

// AppliesTo reports whether the rule's actions set contains the action.
func (r *Rule) AppliesTo(action string) bool {
	for _, a := range r.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// RuleSet is an immutable, validated collection of rules, pre-sorted by
// priority descending with declaration order breaking ties.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates the given rules against the known condition names
// and returns an immutable set. The input slice is copied; declaration
// order is the slice order.
func NewRuleSet(in []Rule, knownConditions []string) (*RuleSet, error) {
	known := make(map[string]bool, len(knownConditions))
	for _, name := range knownConditions {
		known[name] = true
	}

	var errs ValidationErrors
	seen := make(map[string]bool, len(in))
	rs := make([]Rule, len(in))
	for i, r := range in {
		r.order = i
		if r.Name == "" {
			errs = append(errs, &ValidationError{RuleName: r.Name, Field: "name", Message: "rule name is required"})
		} else if seen[r.Name] {
			errs = append(errs, &ValidationError{RuleName: r.Name, Field: "name", Message: "duplicate rule name"})
		}
		seen[r.Name] = true

		if !r.Effect.Valid() {
			errs = append(errs, &ValidationError{RuleName: r.Name, Field: "effect",
				Message: "effect must be \"allow\" or \"deny\", got " + string(r.Effect)})
		}
		if len(r.Actions) == 0 {
			errs = append(errs, &ValidationError{RuleName: r.Name, Field: "actions", Message: "actions set must not be empty"})
		}
		if r.Condition == "" {
			errs = append(errs, &ValidationError{RuleName: r.Name, Field: "condition", Message: "condition is required"})
		} else if !known[r.Condition] {
			errs = append(errs, &ValidationError{RuleName: r.Name, Field: "condition",
				Message: "unknown condition " + strconv.Quote(r.Condition)})
		}
		rs[i] = r
	}

	if len(errs) > 0 {
		return nil, errs
	}

	// Stable sort keeps declaration order among equal priorities.
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Priority > rs[j].Priority
	})

	return &RuleSet{rules: rs}, nil
}

// Len returns the number of rules in the set.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// All returns a copy of all rules in evaluation order.
func (s *RuleSet) All() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// ForAction returns the rules applicable to the action, in evaluation
// order (priority descending, declaration order on ties).
func (s *RuleSet) ForAction(action string) []Rule {
	var out []Rule
	for _, r := range s.rules {
		if r.AppliesTo(action) {
			out = append(out, r)
		}
	}
	return out
}
