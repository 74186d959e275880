package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/policy/engine"
)

// RecorderConfig configures the audit recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes audit records asynchronously to a storage backend.
// It implements the orchestrator's Observer interface, so wiring it into an
// orchestrator captures every decision, invocation, and turn.
type Recorder struct {
	storage    Storage
	config     *RecorderConfig
	recordChan chan *Record
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger
}

// NewRecorder creates a recorder backed by the given storage and starts its
// background writer.
func NewRecorder(storage Storage, config *RecorderConfig, logger *slog.Logger) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)
	return r
}

// ObserveDecision records an authorization decision.
func (r *Recorder) ObserveDecision(sessionID string, req engine.Request, d engine.Decision) {
	rec := &Record{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Kind:       KindDecision,
		RecordedAt: time.Now(),

		RequesterID:    req.Context.RequesterID,
		RequesterEmail: req.Context.RequesterEmail,
		RequesterRole:  string(req.Context.RequesterRole),

		Action:      req.Action,
		Allowed:     d.Allowed,
		MatchedRule: d.MatchedRule,
		Reason:      d.Reason,
	}
	if req.Context.HasTarget {
		rec.TargetID = req.Context.TargetID
	}
	r.enqueue(rec)
}

// ObserveInvocation records an executed (or failed) action invocation.
func (r *Recorder) ObserveInvocation(sessionID string, action string, outcome conversation.OutcomeStatus, elapsed time.Duration) {
	r.enqueue(&Record{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Kind:       KindInvocation,
		RecordedAt: time.Now(),

		Action:     action,
		Outcome:    string(outcome),
		DurationMS: elapsed.Milliseconds(),
	})
}

// ObserveTurn records a completed conversation turn.
func (r *Recorder) ObserveTurn(sessionID string, iterations int, bounded bool) {
	r.enqueue(&Record{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Kind:       KindTurn,
		RecordedAt: time.Now(),

		Iterations: iterations,
		Bounded:    bounded,
	})
}

// enqueue hands a record to the background writer without blocking the
// caller. Records are dropped with a log line when the buffer is full.
func (r *Recorder) enqueue(rec *Record) {
	select {
	case r.recordChan <- rec:
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping record",
			"record_id", rec.ID,
			"kind", rec.Kind,
		)
	default:
		r.logger.Error("audit channel full, dropping record",
			"record_id", rec.ID,
			"kind", rec.Kind,
			"channel_capacity", r.config.AsyncBuffer,
		)
	}
}

// Close drains the channel and waits for pending writes.
func (r *Recorder) Close() error {
	r.logger.Info("shutting down audit recorder")
	close(r.done)
	r.wg.Wait()
	r.logger.Info("audit recorder shut down complete")
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.recordChan:
			r.writeRecord(rec)

		case <-r.done:
			// Drain remaining records before exit.
			r.logger.Info("draining audit channel before shutdown",
				"pending_count", len(r.recordChan),
			)
			for {
				select {
				case rec := <-r.recordChan:
					r.writeRecord(rec)
				default:
					r.logger.Info("audit channel drained")
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, rec); err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", rec.ID,
			"kind", rec.Kind,
			"error", err,
		)
		return
	}

	r.logger.Debug("audit record stored",
		"record_id", rec.ID,
		"session_id", rec.SessionID,
		"kind", rec.Kind,
	)
}
