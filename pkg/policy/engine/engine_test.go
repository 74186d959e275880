package engine

import (
	"fmt"
	"strings"
	"testing"

	"mercator-hq/hermes/pkg/identity"
	"mercator-hq/hermes/pkg/policy/rules"
)

// fakeDirectory is a static reporting-line and cost-center table.
type fakeDirectory struct {
	reports     map[int64][]int64
	costCenters map[string][]int64
	err         error
}

func (d *fakeDirectory) IsDirectReport(managerID, employeeID int64) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	for _, id := range d.reports[managerID] {
		if id == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDirectory) HasCostCenterAccess(userEmail string, employeeID int64) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	for _, id := range d.costCenters[userEmail] {
		if id == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func mustRuleSet(t *testing.T, preds Predicates, rs ...rules.Rule) *rules.RuleSet {
	t.Helper()
	set, err := rules.NewRuleSet(rs, preds.Names())
	if err != nil {
		t.Fatalf("NewRuleSet() error = %v", err)
	}
	return set
}

func newTestEngine(t *testing.T, dir Directory, rs ...rules.Rule) *Engine {
	t.Helper()
	preds := NewPredicates(dir)
	e, err := New(mustRuleSet(t, preds, rs...), preds, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestEngine_DefaultDeny(t *testing.T) {
	e := newTestEngine(t, nil,
		rules.Rule{Name: "other", Effect: rules.EffectAllow, Actions: []string{"other_action"}, Condition: "always"},
	)

	d := e.Decide(Request{Action: "get_compensation", Context: identity.Context{RequesterID: 1}})
	if d.Allowed {
		t.Fatal("uncovered action must be denied")
	}
	if d.MatchedRule != "" {
		t.Errorf("MatchedRule = %q, want empty for default deny", d.MatchedRule)
	}
	if d.Reason != DefaultDenyReason {
		t.Errorf("Reason = %q, want %q", d.Reason, DefaultDenyReason)
	}
}

func TestEngine_NoMatchingCondition(t *testing.T) {
	e := newTestEngine(t, nil,
		rules.Rule{Name: "hr_only", Effect: rules.EffectAllow, Actions: []string{"get_employee"}, Condition: "is_hr"},
	)

	d := e.Decide(Request{
		Action:  "get_employee",
		Context: identity.Context{RequesterID: 201, RequesterRole: identity.RoleEmployee},
	})
	if d.Allowed {
		t.Fatal("non-HR requester must be denied")
	}
	if !strings.Contains(d.Reason, "default deny") {
		t.Errorf("Reason = %q, want a default deny", d.Reason)
	}
}

func TestEngine_PriorityOrdering(t *testing.T) {
	e := newTestEngine(t, nil,
		rules.Rule{Name: "allow_low", Effect: rules.EffectAllow, Priority: 10, Actions: []string{"x"}, Condition: "always"},
		rules.Rule{Name: "deny_high", Effect: rules.EffectDeny, Priority: 30, Actions: []string{"x"}, Condition: "always"},
	)

	d := e.Decide(Request{Action: "x", Context: identity.Context{RequesterID: 1}})
	if d.Allowed {
		t.Fatal("higher priority deny must win")
	}
	if d.MatchedRule != "deny_high" {
		t.Errorf("MatchedRule = %q, want deny_high", d.MatchedRule)
	}
}

func TestEngine_DeclarationOrderBreaksTies(t *testing.T) {
	e := newTestEngine(t, nil,
		rules.Rule{Name: "first", Effect: rules.EffectAllow, Priority: 20, Actions: []string{"x"}, Condition: "always"},
		rules.Rule{Name: "second", Effect: rules.EffectDeny, Priority: 20, Actions: []string{"x"}, Condition: "always"},
	)

	for i := 0; i < 50; i++ {
		d := e.Decide(Request{Action: "x", Context: identity.Context{RequesterID: 1}})
		if !d.Allowed || d.MatchedRule != "first" {
			t.Fatalf("iteration %d: MatchedRule = %q allowed = %v, want first/true", i, d.MatchedRule, d.Allowed)
		}
	}
}

func TestEngine_ExplicitDenyReason(t *testing.T) {
	e := newTestEngine(t, nil,
		rules.Rule{
			Name:        "no_self_approval",
			Description: "Employees cannot approve their own requests",
			Effect:      rules.EffectDeny,
			Actions:     []string{"approve_holiday_request"},
			Condition:   "is_self",
		},
	)

	d := e.Decide(Request{
		Action:  "approve_holiday_request",
		Context: identity.Context{RequesterID: 200, RequesterRole: identity.RoleManager}.WithTarget(200),
	})
	if d.Allowed {
		t.Fatal("explicit deny must deny")
	}
	if d.MatchedRule != "no_self_approval" {
		t.Errorf("MatchedRule = %q, want no_self_approval", d.MatchedRule)
	}
	if !strings.Contains(d.Reason, "Employees cannot approve their own requests") {
		t.Errorf("Reason = %q, want the rule description included", d.Reason)
	}
}

func TestEngine_SelfPredicate(t *testing.T) {
	e := newTestEngine(t, nil,
		rules.Rule{Name: "self", Effect: rules.EffectAllow, Actions: []string{"get_holiday_balance"}, Condition: "is_self"},
	)

	tests := []struct {
		name    string
		ctx     identity.Context
		allowed bool
	}{
		{
			name:    "own record",
			ctx:     identity.Context{RequesterID: 7}.WithTarget(7),
			allowed: true,
		},
		{
			name:    "someone else",
			ctx:     identity.Context{RequesterID: 7}.WithTarget(9),
			allowed: false,
		},
		{
			name:    "no target",
			ctx:     identity.Context{RequesterID: 7},
			allowed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Decide(Request{Action: "get_holiday_balance", Context: tt.ctx})
			if d.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v (%s)", d.Allowed, tt.allowed, d.Reason)
			}
		})
	}
}

func TestEngine_ManagerOfTarget(t *testing.T) {
	dir := &fakeDirectory{reports: map[int64][]int64{200: {201, 202}}}
	e := newTestEngine(t, dir,
		rules.Rule{Name: "approvals", Effect: rules.EffectAllow, Actions: []string{"approve_holiday_request"}, Condition: "is_manager_of_target"},
	)

	tests := []struct {
		name    string
		ctx     identity.Context
		allowed bool
	}{
		{
			name:    "manager of the target",
			ctx:     identity.Context{RequesterID: 200, RequesterRole: identity.RoleManager}.WithTarget(201),
			allowed: true,
		},
		{
			name:    "manager of someone else",
			ctx:     identity.Context{RequesterID: 200, RequesterRole: identity.RoleManager}.WithTarget(300),
			allowed: false,
		},
		{
			name:    "right line, wrong role",
			ctx:     identity.Context{RequesterID: 200, RequesterRole: identity.RoleEmployee}.WithTarget(201),
			allowed: false,
		},
		{
			name:    "no target at all",
			ctx:     identity.Context{RequesterID: 200, RequesterRole: identity.RoleManager},
			allowed: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Decide(Request{Action: "approve_holiday_request", Context: tt.ctx})
			if d.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v (%s)", d.Allowed, tt.allowed, d.Reason)
			}
		})
	}
}

func TestEngine_FinancePredicate(t *testing.T) {
	dir := &fakeDirectory{costCenters: map[string][]int64{"maria.garcia@acme.com": {201}}}
	e := newTestEngine(t, dir,
		rules.Rule{Name: "finance_comp", Effect: rules.EffectAllow, Actions: []string{"get_compensation"}, Condition: "is_finance"},
	)

	maria := identity.Context{RequesterID: 121, RequesterEmail: "maria.garcia@acme.com", RequesterRole: identity.RoleFinance}
	tests := []struct {
		name    string
		ctx     identity.Context
		allowed bool
	}{
		{
			name:    "finance with cost center access",
			ctx:     maria.WithTarget(201),
			allowed: true,
		},
		{
			name:    "finance without cost center access",
			ctx:     maria.WithTarget(300),
			allowed: false,
		},
		{
			name:    "finance with no target",
			ctx:     maria,
			allowed: true,
		},
		{
			name:    "right cost center, wrong role",
			ctx:     identity.Context{RequesterID: 121, RequesterEmail: "maria.garcia@acme.com", RequesterRole: identity.RoleEmployee}.WithTarget(201),
			allowed: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Decide(Request{Action: "get_compensation", Context: tt.ctx})
			if d.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v (%s)", d.Allowed, tt.allowed, d.Reason)
			}
		})
	}
}

func TestEngine_PredicateErrorSkipsRule(t *testing.T) {
	dir := &fakeDirectory{err: fmt.Errorf("directory unavailable")}
	e := newTestEngine(t, dir,
		rules.Rule{Name: "line", Effect: rules.EffectAllow, Priority: 20, Actions: []string{"x"}, Condition: "is_direct_report"},
		rules.Rule{Name: "fallback", Effect: rules.EffectAllow, Priority: 10, Actions: []string{"x"}, Condition: "always"},
	)

	d := e.Decide(Request{
		Action:  "x",
		Context: identity.Context{RequesterID: 1}.WithTarget(2),
	})
	if !d.Allowed {
		t.Fatalf("erroring predicate must skip its rule, not deny: %s", d.Reason)
	}
	if d.MatchedRule != "fallback" {
		t.Errorf("MatchedRule = %q, want fallback", d.MatchedRule)
	}
}

func TestEngine_Swap(t *testing.T) {
	preds := NewPredicates(nil)
	old := mustRuleSet(t, preds,
		rules.Rule{Name: "open", Effect: rules.EffectAllow, Actions: []string{"x"}, Condition: "always"},
	)
	e, err := New(old, preds, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if d := e.Decide(Request{Action: "x"}); !d.Allowed {
		t.Fatal("precondition: x allowed under old set")
	}

	next := mustRuleSet(t, preds,
		rules.Rule{Name: "closed", Effect: rules.EffectDeny, Actions: []string{"x"}, Condition: "always"},
	)
	if got := e.Swap(next); got != old {
		t.Error("Swap() must return the previous set")
	}
	if d := e.Decide(Request{Action: "x"}); d.Allowed {
		t.Error("x must be denied after swap")
	}
	if e.RuleSet() != next {
		t.Error("RuleSet() must return the active set")
	}
}

func TestNew_Validation(t *testing.T) {
	preds := NewPredicates(nil)
	set := mustRuleSet(t, preds)

	if _, err := New(nil, preds, nil); err == nil {
		t.Error("New(nil set) should error")
	}
	if _, err := New(set, nil, nil); err == nil {
		t.Error("New(empty predicates) should error")
	}
}

func TestPredicates_Names(t *testing.T) {
	names := NewPredicates(nil).Names()
	want := []string{"always", "is_direct_report", "is_finance", "is_hr", "is_manager", "is_manager_of_target", "is_self"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
