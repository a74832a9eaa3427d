// Package escalation runs the background second-opinion flow for decisions
// that cross the configured trigger level.
package escalation

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/adapters/audit"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/metrics"
)

// Config holds the settings for the escalation worker.
type Config struct {
	// TriggerLevel is the lowest decision level that gets escalated.
	// Unacceptable decisions always escalate regardless of level.
	TriggerLevel core.Level

	// QueueSize bounds the number of pending jobs. Submissions past the
	// bound are dropped.
	QueueSize int

	// ReviewTimeout bounds the processing of a single job.
	ReviewTimeout time.Duration
}

// Worker consumes escalation jobs, fetches a second opinion from the
// configured reviewer, attaches it to the audit record and alerts operators.
type Worker struct {
	reviewer core.Reviewer
	audit    core.DecisionLog
	notifier core.Notifier
	trigger  core.Level
	timeout  time.Duration
	jobs     chan *core.EscalationJob
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// NewWorker creates a new escalation worker and starts its processing loop.
func NewWorker(reviewer core.Reviewer, decisionLog core.DecisionLog, notifier core.Notifier, cfg Config, logger *zap.Logger) *Worker {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	timeout := cfg.ReviewTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	w := &Worker{
		reviewer: reviewer,
		audit:    decisionLog,
		notifier: notifier,
		trigger:  cfg.TriggerLevel,
		timeout:  timeout,
		jobs:     make(chan *core.EscalationJob, queueSize),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logger,
	}

	// Start background processing
	go w.run()

	logger.Info("Escalation worker started",
		zap.String("trigger_level", string(cfg.TriggerLevel)),
		zap.Int("queue_size", queueSize))

	return w
}

// Submit enqueues a job if the decision qualifies for escalation. It never
// blocks; when the queue is full the job is dropped and counted.
func (w *Worker) Submit(job *core.EscalationJob) {
	if job == nil || job.Record == nil || job.Result == nil {
		return
	}
	if !w.qualifies(job.Result) {
		return
	}

	select {
	case w.jobs <- job:
		metrics.EscalationsTotal.Inc()
	default:
		metrics.EscalationDropsTotal.Inc()
		w.logger.Warn("Escalation queue full, dropping job",
			zap.String("decision_id", job.Record.ID),
			zap.String("level", string(job.Result.Level)))
	}
}

func (w *Worker) qualifies(result *core.ModerationResult) bool {
	return !result.IsAcceptable || result.Level.Rank() >= w.trigger.Rank()
}

func (w *Worker) run() {
	defer close(w.doneCh)
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		case <-w.stopCh:
			// Drain jobs already queued before exiting.
			for {
				select {
				case job := <-w.jobs:
					w.process(job)
				default:
					return
				}
			}
		}
	}
}

func (w *Worker) process(job *core.EscalationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	review, err := w.reviewer.Review(ctx, job.Text, job.Result)
	if err != nil {
		w.logger.Error("Second opinion review failed",
			zap.Error(err),
			zap.String("decision_id", job.Record.ID))
		return
	}

	if w.audit != nil {
		if err := w.audit.AttachReview(ctx, job.Record.ID, review); err != nil {
			if errors.Is(err, audit.ErrNotFound) {
				w.logger.Warn("Audit record gone before review arrived",
					zap.String("decision_id", job.Record.ID))
			} else {
				w.logger.Error("Failed to attach review",
					zap.Error(err),
					zap.String("decision_id", job.Record.ID))
			}
		}
	}

	if w.notifier != nil {
		if err := w.notifier.Notify(ctx, job.Record, review); err != nil {
			w.logger.Error("Failed to deliver escalation alert",
				zap.Error(err),
				zap.String("decision_id", job.Record.ID))
		}
	}

	w.logger.Debug("Escalation processed",
		zap.String("decision_id", job.Record.ID),
		zap.String("provider", review.Provider))
}

// Stop shuts the worker down after draining queued jobs. It is safe to call
// more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}
