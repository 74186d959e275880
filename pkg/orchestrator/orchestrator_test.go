package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"mercator-hq/hermes/pkg/actions"
	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/identity"
	"mercator-hq/hermes/pkg/policy/engine"
	"mercator-hq/hermes/pkg/policy/rules"
	"mercator-hq/hermes/pkg/reasoner"
)

var alex = identity.Context{
	RequesterID:    201,
	RequesterEmail: "alex.kim@acme.com",
	RequesterRole:  identity.RoleEmployee,
}

// recordingObserver captures every event for assertions.
type recordingObserver struct {
	mu          sync.Mutex
	decisions   []engine.Decision
	invocations []conversation.OutcomeStatus
	turns       []bool
}

func (r *recordingObserver) ObserveDecision(_ string, _ engine.Request, d engine.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)
}

func (r *recordingObserver) ObserveInvocation(_, _ string, outcome conversation.OutcomeStatus, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations = append(r.invocations, outcome)
}

func (r *recordingObserver) ObserveTurn(_ string, _ int, bounded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, bounded)
}

// countingHandler counts invocations and returns a fixed payload.
type countingHandler struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (h *countingHandler) handle(_ context.Context, _ map[string]any) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return map[string]any{"ok": true}, nil
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

// selfOnlyEngine allows get_holiday_balance for the requester's own record
// and nothing else.
func selfOnlyEngine(t *testing.T) *engine.Engine {
	t.Helper()
	preds := engine.NewPredicates(nil)
	set, err := rules.NewRuleSet([]rules.Rule{
		{Name: "own_holiday_data", Effect: rules.EffectAllow, Priority: 20,
			Actions: []string{"get_holiday_balance"}, Condition: "is_self"},
	}, preds.Names())
	if err != nil {
		t.Fatal(err)
	}
	e, err := engine.New(set, preds, nil)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func balanceRegistry(t *testing.T, h *countingHandler) *actions.Map {
	t.Helper()
	m := actions.NewMap()
	err := m.Register(&actions.Schema{
		Name:            "get_holiday_balance",
		TargetParameter: "employee_id",
	}, h.handle)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func balanceRequest(callID string, employeeID float64) conversation.ActionRequest {
	return conversation.ActionRequest{
		Name:      "get_holiday_balance",
		Arguments: map[string]any{"employee_id": employeeID},
		CallID:    callID,
	}
}

func TestAdvance_FinalAnswerImmediately(t *testing.T) {
	h := &countingHandler{}
	orch, err := New(selfOnlyEngine(t), balanceRegistry(t, h),
		reasoner.NewScripted(reasoner.FinalAnswer("hello")),
		conversation.NewStore(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	answer, err := orch.Advance(context.Background(), "s1", alex, "hi")
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if answer != "hello" {
		t.Errorf("answer = %q", answer)
	}
	if h.count() != 0 {
		t.Errorf("no actions requested, but handler ran %d times", h.count())
	}
}

func TestAdvance_AllowedAndDeniedInOneBatch(t *testing.T) {
	h := &countingHandler{}
	obs := &recordingObserver{}
	script := reasoner.NewScripted(
		reasoner.RequestActions(
			balanceRequest("c1", 201), // own record: allowed
			balanceRequest("c2", 204), // someone else: denied
		),
		reasoner.FinalAnswer("done"),
	)
	store := conversation.NewStore()
	orch, err := New(selfOnlyEngine(t), balanceRegistry(t, h), script, store, nil, nil, obs)
	if err != nil {
		t.Fatal(err)
	}

	answer, err := orch.Advance(context.Background(), "s1", alex, "check both balances")
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if answer != "done" {
		t.Errorf("answer = %q", answer)
	}
	if h.count() != 1 {
		t.Fatalf("handler ran %d times, want exactly 1 (denied action must not execute)", h.count())
	}

	// The log carries one result per request, correlated by call ID.
	var results []conversation.Message
	for _, m := range store.Get("s1").Messages() {
		if m.Kind == conversation.KindActionResult {
			results = append(results, m)
		}
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].CallID != "c1" || results[0].Outcome.Status != conversation.OutcomeSuccess {
		t.Errorf("first result = %+v, want success for c1", results[0])
	}
	if results[1].CallID != "c2" || results[1].Outcome.Status != conversation.OutcomeDenied {
		t.Errorf("second result = %+v, want denial for c2", results[1])
	}
	if results[1].Outcome.Reason == "" {
		t.Error("denial must carry a reason for the reasoner to relay")
	}

	if len(obs.decisions) != 2 {
		t.Errorf("observed %d decisions, want 2", len(obs.decisions))
	}
	if len(obs.invocations) != 1 || obs.invocations[0] != conversation.OutcomeSuccess {
		t.Errorf("observed invocations = %v, want one success", obs.invocations)
	}
}

func TestAdvance_FailedActionContinuesTurn(t *testing.T) {
	h := &countingHandler{err: fmt.Errorf("store offline")}
	script := reasoner.NewScripted(
		reasoner.RequestActions(balanceRequest("c1", 201)),
		reasoner.FinalAnswer("I could not read your balance right now."),
	)
	store := conversation.NewStore()
	orch, err := New(selfOnlyEngine(t), balanceRegistry(t, h), script, store, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	answer, err := orch.Advance(context.Background(), "s1", alex, "balance?")
	if err != nil {
		t.Fatalf("a failed action must not fail the turn: %v", err)
	}
	if answer == "" {
		t.Error("turn must still reach a final answer")
	}

	msgs := store.Get("s1").Messages()
	last := msgs[len(msgs)-2] // result precedes the final reasoner message
	if last.Kind != conversation.KindActionResult || last.Outcome.Status != conversation.OutcomeFailed {
		t.Errorf("penultimate message = %+v, want failed result", last)
	}
	if last.Outcome.Error == "" {
		t.Error("failure must carry the error text")
	}
}

func TestAdvance_UnknownActionDeniedNotInvoked(t *testing.T) {
	h := &countingHandler{}
	script := reasoner.NewScripted(
		reasoner.RequestActions(conversation.ActionRequest{Name: "drop_database", CallID: "c1"}),
		reasoner.FinalAnswer("that is not something I can do"),
	)
	store := conversation.NewStore()
	orch, err := New(selfOnlyEngine(t), balanceRegistry(t, h), script, store, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := orch.Advance(context.Background(), "s1", alex, "drop it"); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	for _, m := range store.Get("s1").Messages() {
		if m.Kind == conversation.KindActionResult {
			if m.Outcome.Status != conversation.OutcomeDenied {
				t.Errorf("unknown action result = %+v, want denied", m.Outcome)
			}
		}
	}
	if h.count() != 0 {
		t.Error("unknown action must never reach a handler")
	}
}

func TestAdvance_IterationBound(t *testing.T) {
	h := &countingHandler{}
	// The script always asks for more actions and never answers.
	var steps []reasoner.Decision
	for i := 0; i < 10; i++ {
		steps = append(steps, reasoner.RequestActions(balanceRequest(fmt.Sprintf("c%d", i), 201)))
	}
	obs := &recordingObserver{}
	orch, err := New(selfOnlyEngine(t), balanceRegistry(t, h),
		reasoner.NewScripted(steps...), conversation.NewStore(),
		&Config{MaxIterations: 3}, nil, obs)
	if err != nil {
		t.Fatal(err)
	}

	answer, err := orch.Advance(context.Background(), "s1", alex, "loop forever")
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if answer != DefaultIncompleteAnswer {
		t.Errorf("answer = %q, want the incomplete answer", answer)
	}
	if h.count() != 3 {
		t.Errorf("handler ran %d times, want 3", h.count())
	}
	if len(obs.turns) != 1 || !obs.turns[0] {
		t.Errorf("turns = %v, want one bounded turn", obs.turns)
	}
}

func TestAdvance_ReasonerFailureLeavesLogUnchanged(t *testing.T) {
	store := conversation.NewStore()
	h := &countingHandler{}
	orch, err := New(selfOnlyEngine(t), balanceRegistry(t, h),
		reasoner.NewScripted( /* exhausted immediately */ ), store, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = orch.Advance(context.Background(), "s1", alex, "hello")
	if err == nil {
		t.Fatal("Advance() must surface the reasoner failure")
	}
	if got := store.Get("s1").Len(); got != 0 {
		t.Errorf("session log has %d messages after a failed first consultation, want 0", got)
	}
}

func TestAdvance_ContextCancelledMidBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := &countingHandler{}
	m := actions.NewMap()
	// The first action cancels the context; the rest of the batch must be
	// closed out as failed without running.
	if err := m.Register(&actions.Schema{Name: "get_holiday_balance", TargetParameter: "employee_id"},
		func(c context.Context, args map[string]any) (any, error) {
			cancel()
			return map[string]any{"ok": true}, nil
		}); err != nil {
		t.Fatal(err)
	}

	script := reasoner.NewScripted(
		reasoner.RequestActions(
			balanceRequest("c1", 201),
			balanceRequest("c2", 201),
			balanceRequest("c3", 201),
		),
	)
	store := conversation.NewStore()
	orch, err := New(selfOnlyEngine(t), m, script, store, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = orch.Advance(ctx, "s1", alex, "three lookups")
	if err == nil {
		t.Fatal("Advance() must report the cancellation")
	}

	var results []conversation.Message
	for _, msg := range store.Get("s1").Messages() {
		if msg.Kind == conversation.KindActionResult {
			results = append(results, msg)
		}
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want one per request", len(results))
	}
	if results[0].Outcome.Status != conversation.OutcomeSuccess {
		t.Errorf("first result = %+v, want success", results[0].Outcome)
	}
	for _, r := range results[1:] {
		if r.Outcome.Status != conversation.OutcomeFailed {
			t.Errorf("result %s = %+v, want failed after cancellation", r.CallID, r.Outcome)
		}
	}
	_ = h
}

func TestAdvance_PanickingHandlerBecomesFailedResult(t *testing.T) {
	m := actions.NewMap()
	if err := m.Register(&actions.Schema{Name: "get_holiday_balance", TargetParameter: "employee_id"},
		func(context.Context, map[string]any) (any, error) {
			panic("nil dereference in handler")
		}); err != nil {
		t.Fatal(err)
	}

	script := reasoner.NewScripted(
		reasoner.RequestActions(balanceRequest("c1", 201)),
		reasoner.FinalAnswer("something went wrong"),
	)
	store := conversation.NewStore()
	orch, err := New(selfOnlyEngine(t), m, script, store, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := orch.Advance(context.Background(), "s1", alex, "balance?"); err != nil {
		t.Fatalf("a panicking handler must not fail the turn: %v", err)
	}

	for _, msg := range store.Get("s1").Messages() {
		if msg.Kind == conversation.KindActionResult {
			if msg.Outcome.Status != conversation.OutcomeFailed {
				t.Errorf("result = %+v, want failed", msg.Outcome)
			}
		}
	}
}

func TestAdvance_IdentityFixedAtSessionStart(t *testing.T) {
	h := &countingHandler{}
	script := reasoner.NewScripted(
		reasoner.FinalAnswer("first"),
		reasoner.RequestActions(balanceRequest("c1", 201)),
		reasoner.FinalAnswer("second"),
	)
	store := conversation.NewStore()
	orch, err := New(selfOnlyEngine(t), balanceRegistry(t, h), script, store, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := orch.Advance(context.Background(), "s1", alex, "hi"); err != nil {
		t.Fatal(err)
	}

	// A later caller cannot smuggle in a stronger identity for the session.
	hrIdentity := identity.Context{RequesterID: 110, RequesterRole: identity.RoleHR}
	if _, err := orch.Advance(context.Background(), "s1", hrIdentity, "balance of 201?"); err != nil {
		t.Fatal(err)
	}
	if store.Get("s1").Identity.RequesterID != alex.RequesterID {
		t.Error("session identity must stay as supplied at creation")
	}
	// Employee 201's own balance is still allowed under the original
	// identity, so the handler runs once.
	if h.count() != 1 {
		t.Errorf("handler ran %d times, want 1", h.count())
	}
}

func TestNew_RequiredDependencies(t *testing.T) {
	h := &countingHandler{}
	eng := selfOnlyEngine(t)
	reg := balanceRegistry(t, h)
	script := reasoner.NewScripted()
	store := conversation.NewStore()

	if _, err := New(nil, reg, script, store, nil, nil); err == nil {
		t.Error("nil engine should error")
	}
	if _, err := New(eng, nil, script, store, nil, nil); err == nil {
		t.Error("nil registry should error")
	}
	if _, err := New(eng, reg, nil, store, nil, nil); err == nil {
		t.Error("nil reasoner should error")
	}
	if _, err := New(eng, reg, script, nil, nil, nil); err == nil {
		t.Error("nil store should error")
	}
}
