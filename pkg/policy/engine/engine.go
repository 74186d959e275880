package engine

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"mercator-hq/hermes/pkg/policy/rules"
)

// DefaultDenyReason is the reason attached to decisions where no rule
// covers the requested action.
const DefaultDenyReason = "no applicable rule (default deny)"

// Engine decides authorization requests against the active rule set.
//
// The engine is safe for concurrent use. Decisions taken concurrently with
// a Swap observe one complete snapshot of the rule set.
type Engine struct {
	active atomic.Pointer[rules.RuleSet]
	preds  Predicates
	logger *slog.Logger
}

// New creates an engine with the given initial rule set and predicate
// table.
func New(set *rules.RuleSet, preds Predicates, logger *slog.Logger) (*Engine, error) {
	if set == nil {
		return nil, fmt.Errorf("rule set cannot be nil")
	}
	if len(preds) == 0 {
		return nil, fmt.Errorf("predicate table cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		preds:  preds,
		logger: logger.With("component", "policy.engine"),
	}
	e.active.Store(set)
	return e, nil
}

// Decide evaluates one request against the active rule set. It never
// returns an error: an unanswerable request is a deny, and predicate
// failures skip the affected rule.
func (e *Engine) Decide(req Request) Decision {
	set := e.active.Load()

	applicable := set.ForAction(req.Action)
	if len(applicable) == 0 {
		return Decision{
			Allowed: false,
			Reason:  DefaultDenyReason,
		}
	}

	for i := range applicable {
		rule := &applicable[i]
		pred, ok := e.preds[rule.Condition]
		if !ok {
			// Unknown conditions are rejected at load time; reaching this
			// branch means the predicate table shrank underneath an old
			// rule set.
			e.logger.Warn("skipping rule with unknown condition",
				"rule", rule.Name,
				"condition", rule.Condition,
			)
			continue
		}

		matched, err := pred(req.Context, req.Arguments)
		if err != nil {
			e.logger.Warn("skipping rule after predicate error",
				"rule", rule.Name,
				"condition", rule.Condition,
				"error", err,
			)
			continue
		}
		if !matched {
			continue
		}

		if rule.Effect == rules.EffectAllow {
			return Decision{
				Allowed:     true,
				MatchedRule: rule.Name,
				Reason:      fmt.Sprintf("allowed by rule %q", rule.Name),
			}
		}
		reason := fmt.Sprintf("denied by rule %q", rule.Name)
		if rule.Description != "" {
			reason = fmt.Sprintf("denied by rule %q: %s", rule.Name, rule.Description)
		}
		return Decision{
			Allowed:     false,
			MatchedRule: rule.Name,
			Reason:      reason,
		}
	}

	return Decision{
		Allowed: false,
		Reason:  fmt.Sprintf("no rule matched for action %q (default deny)", req.Action),
	}
}

// Swap atomically replaces the active rule set and returns the previous
// one. In-flight decisions keep the snapshot they loaded.
func (e *Engine) Swap(set *rules.RuleSet) *rules.RuleSet {
	old := e.active.Swap(set)
	e.logger.Info("rule set swapped",
		"rules", set.Len(),
		"previous_rules", old.Len(),
	)
	return old
}

// RuleSet returns the currently active rule set.
func (e *Engine) RuleSet() *rules.RuleSet {
	return e.active.Load()
}

// Conditions returns the names of the conditions the engine understands.
// Rule files are validated against this list at load time.
func (e *Engine) Conditions() []string {
	return e.preds.Names()
}
