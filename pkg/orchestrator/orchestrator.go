package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/hermes/pkg/actions"
	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/identity"
	"mercator-hq/hermes/pkg/policy/engine"
	"mercator-hq/hermes/pkg/reasoner"
)

// Orchestrator runs the conversation state machine for every session in
// its store.
type Orchestrator struct {
	engine   *engine.Engine
	registry actions.Registry
	reason   reasoner.Reasoner
	store    *conversation.Store
	config   *Config
	observer Observer
	logger   *slog.Logger
}

// New creates an orchestrator. engine, registry, reasoner and store are
// required; observers are optional.
func New(eng *engine.Engine, registry actions.Registry, r reasoner.Reasoner, store *conversation.Store, config *Config, logger *slog.Logger, observers ...Observer) (*Orchestrator, error) {
	if eng == nil {
		return nil, fmt.Errorf("policy engine is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("action registry is required")
	}
	if r == nil {
		return nil, fmt.Errorf("reasoner is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		engine:   eng,
		registry: registry,
		reason:   r,
		store:    store,
		config:   config,
		observer: multiObserver(observers),
		logger:   logger.With("component", "orchestrator"),
	}, nil
}

// Advance runs one user turn for the session. The first call for a session
// ID initializes empty conversation state with the supplied identity;
// later calls ignore the identity argument in favor of the session's own.
//
// A reasoner failure is returned to the caller with the session log
// unchanged for that consultation, so the turn can be retried.
func (o *Orchestrator) Advance(ctx context.Context, sessionID string, ic identity.Context, userText string) (string, error) {
	session, created := o.store.GetOrCreate(sessionID, ic)
	if created {
		o.logger.Info("session created",
			"session_id", session.ID,
			"requester_id", session.Identity.RequesterID,
			"role", session.Identity.RequesterRole,
		)
	}

	session.LockTurn()
	defer session.UnlockTurn()

	// The user message is staged, not yet committed: if the very first
	// reasoner consultation fails, the log must be exactly as it was
	// before this call so the turn can be retried.
	staged := []conversation.Message{conversation.NewUserMessage(userText)}

	for iteration := 1; iteration <= o.config.MaxIterations; iteration++ {
		history := append(session.Messages(), staged...)

		decision, err := o.reason.Decide(ctx, history, session.Identity)
		if err != nil {
			o.logger.Error("reasoner failure",
				"session_id", session.ID,
				"iteration", iteration,
				"error", err,
			)
			return "", fmt.Errorf("reasoner failure on turn for session %s: %w", session.ID, err)
		}

		// DECIDE succeeded: commit the staged messages plus the reasoner's
		// output as one unit.
		switch decision.Kind {
		case reasoner.KindFinalAnswer:
			session.Append(append(staged, conversation.NewReasonerMessage(decision.Answer, nil))...)
			o.observer.ObserveTurn(session.ID, iteration, false)
			return decision.Answer, nil

		case reasoner.KindRequestedActions:
			session.Append(append(staged, conversation.NewReasonerMessage("", decision.Requested))...)
			staged = nil

			results, execErr := o.executeBatch(ctx, session, decision.Requested)
			session.Append(results...)
			if execErr != nil {
				return "", execErr
			}

		default:
			return "", fmt.Errorf("reasoner returned unknown decision kind %q", decision.Kind)
		}
	}

	o.logger.Warn("iteration bound exceeded, forcing incompletion answer",
		"session_id", session.ID,
		"max_iterations", o.config.MaxIterations,
	)
	session.Append(conversation.NewReasonerMessage(o.config.IncompleteAnswer, nil))
	o.observer.ObserveTurn(session.ID, o.config.MaxIterations, true)
	return o.config.IncompleteAnswer, nil
}

// executeBatch runs AUTHORIZE and EXECUTE for one requested-actions batch.
// It always returns exactly one result per request, in request order, so
// the caller can append a complete batch even when the context is
// cancelled partway: remaining actions are marked failed rather than left
// without a result.
func (o *Orchestrator) executeBatch(ctx context.Context, session *conversation.Session, batch []conversation.ActionRequest) ([]conversation.Message, error) {
	results := make([]conversation.Message, 0, len(batch))

	for i, req := range batch {
		if err := ctx.Err(); err != nil {
			// Cancelled mid-EXECUTE: close out the batch without invoking
			// anything else.
			for _, rest := range batch[i:] {
				results = append(results, conversation.NewFailedResult(rest.CallID, err))
			}
			return results, err
		}

		decision, schema := o.authorize(session, req)
		if !decision.Allowed {
			results = append(results, conversation.NewDeniedResult(req.CallID, decision.Reason))
			o.logger.Info("action denied",
				"session_id", session.ID,
				"action", req.Name,
				"rule", decision.MatchedRule,
			)
			continue
		}

		start := time.Now()
		payload, err := o.invoke(ctx, req.Name, req.Arguments, schema)
		elapsed := time.Since(start)
		session.RecordInvocation(req.Name)

		if err != nil {
			results = append(results, conversation.NewFailedResult(req.CallID, err))
			o.observer.ObserveInvocation(session.ID, req.Name, conversation.OutcomeFailed, elapsed)
			o.logger.Warn("action failed",
				"session_id", session.ID,
				"action", req.Name,
				"error", err,
			)
			continue
		}

		results = append(results, conversation.NewSuccessResult(req.CallID, payload))
		o.observer.ObserveInvocation(session.ID, req.Name, conversation.OutcomeSuccess, elapsed)
	}

	return results, nil
}

// authorize builds the decision request for one action and asks the
// engine. The schema's target parameter, when declared and present in the
// arguments, becomes the identity context's target.
func (o *Orchestrator) authorize(session *conversation.Session, req conversation.ActionRequest) (engine.Decision, *actions.Schema) {
	ic := session.Identity

	schema, err := o.registry.Schema(req.Name)
	if err != nil {
		// Unknown action: no rule can speak for it, and the registry must
		// not be invoked. Let the engine render its default deny so the
		// reasoner sees the same shape as any other denial.
		var notFound *actions.NotFoundError
		if !errors.As(err, &notFound) {
			o.logger.Warn("schema lookup failed",
				"session_id", session.ID,
				"action", req.Name,
				"error", err,
			)
		}
		schema = nil
	}

	if id, ok := actions.TargetID(schema, req.Arguments); ok {
		ic = ic.WithTarget(id)
	}

	decisionReq := engine.Request{
		Action:    req.Name,
		Context:   ic,
		Arguments: req.Arguments,
	}
	decision := o.engine.Decide(decisionReq)
	o.observer.ObserveDecision(session.ID, decisionReq, decision)
	return decision, schema
}

// invoke calls the registry, converting a handler panic into an error so a
// misbehaving action cannot take the session down.
func (o *Orchestrator) invoke(ctx context.Context, name string, args map[string]any, schema *actions.Schema) (payload any, err error) {
	if schema == nil {
		return nil, &actions.NotFoundError{Action: name}
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %q panicked: %v", name, r)
		}
	}()
	return o.registry.Invoke(ctx, name, args)
}
