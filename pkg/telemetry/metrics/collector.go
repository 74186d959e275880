package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/policy/engine"
)

// Collector registers and records all Hermes Prometheus metrics.
//
// Metrics:
//   - hermes_decisions_total: Authorization decisions by action, effect, and rule
//   - hermes_invocations_total: Action invocations by action and outcome
//   - hermes_invocation_duration_seconds: Action invocation duration
//   - hermes_turns_total: Conversation turns by completion ("answered", "bounded")
//   - hermes_turn_iterations: Reasoner round-trips per turn
//   - hermes_rule_reloads_total: Rule set reloads by result
type Collector struct {
	registry *prometheus.Registry

	decisionsTotal     *prometheus.CounterVec
	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	turnsTotal         *prometheus.CounterVec
	turnIterations     prometheus.Histogram
	ruleReloadsTotal   *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics. If registry is
// nil a fresh registry is used.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	const namespace = "hermes"

	c := &Collector{
		registry: registry,

		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Total number of authorization decisions",
			},
			[]string{"action", "effect", "rule"},
		),

		invocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total number of action invocations",
			},
			[]string{"action", "outcome"},
		),

		invocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Duration of action invocations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
			},
			[]string{"action"},
		),

		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Total number of conversation turns",
			},
			[]string{"completion"},
		),

		turnIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_iterations",
				Help:      "Reasoner round-trips per conversation turn",
				Buckets:   []float64{1, 2, 3, 4, 5, 8, 10},
			},
		),

		ruleReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_reloads_total",
				Help:      "Total number of rule set reloads",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		c.decisionsTotal,
		c.invocationsTotal,
		c.invocationDuration,
		c.turnsTotal,
		c.turnIterations,
		c.ruleReloadsTotal,
	)
	return c
}

// ObserveDecision records an authorization decision.
func (c *Collector) ObserveDecision(sessionID string, req engine.Request, d engine.Decision) {
	effect := "deny"
	if d.Allowed {
		effect = "allow"
	}
	rule := d.MatchedRule
	if rule == "" {
		rule = "default_deny"
	}
	c.decisionsTotal.WithLabelValues(req.Action, effect, rule).Inc()
}

// ObserveInvocation records an action invocation.
func (c *Collector) ObserveInvocation(sessionID string, action string, outcome conversation.OutcomeStatus, elapsed time.Duration) {
	c.invocationsTotal.WithLabelValues(action, string(outcome)).Inc()
	c.invocationDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// ObserveTurn records a completed conversation turn.
func (c *Collector) ObserveTurn(sessionID string, iterations int, bounded bool) {
	completion := "answered"
	if bounded {
		completion = "bounded"
	}
	c.turnsTotal.WithLabelValues(completion).Inc()
	c.turnIterations.Observe(float64(iterations))
}

// RecordRuleReload records the result of a rule set reload
// ("success" or "error").
func (c *Collector) RecordRuleReload(result string) {
	c.ruleReloadsTotal.WithLabelValues(result).Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
