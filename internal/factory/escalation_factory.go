package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/escalation"
)

// EscalationFactory creates the background review worker
type EscalationFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEscalationFactory creates a new escalation factory
func NewEscalationFactory(cfg *config.Config, logger *zap.Logger) *EscalationFactory {
	return &EscalationFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEscalator creates the escalation worker when escalation is enabled.
// The worker shares the decision log with the pipeline so reviews land on the
// recorded decisions.
func (f *EscalationFactory) CreateEscalator(decisionLog core.DecisionLog) (core.Escalator, error) {
	escalationCfg := f.cfg.GetEscalation()
	if !escalationCfg.Enabled {
		return nil, nil
	}

	trigger, ok := core.ParseLevel(escalationCfg.TriggerLevel)
	if !ok {
		return nil, fmt.Errorf("unknown escalation trigger level: %s", escalationCfg.TriggerLevel)
	}

	reviewTimeout, err := f.cfg.GetDuration("escalation.review_timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid escalation review timeout: %w", err)
	}

	reviewer, err := NewReviewerFactory(f.cfg, f.logger).CreateReviewer()
	if err != nil {
		return nil, fmt.Errorf("failed to create reviewer: %w", err)
	}

	notifier, err := NewNotifierFactory(f.cfg, f.logger).CreateNotifier()
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	return escalation.NewWorker(reviewer, decisionLog, notifier, escalation.Config{
		TriggerLevel:  trigger,
		QueueSize:     escalationCfg.QueueSize,
		ReviewTimeout: reviewTimeout,
	}, f.logger), nil
}
