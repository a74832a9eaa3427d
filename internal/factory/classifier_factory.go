package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/adapters/torchserve"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// ClassifierFactory creates the TorchServe classifier client
type ClassifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClassifier creates the classifier client. An empty endpoint disables
// the classifier; the pipeline then runs on the keyword layer alone.
func (f *ClassifierFactory) CreateClassifier() (core.TextClassifier, error) {
	classifierCfg := f.cfg.GetClassifier()
	if classifierCfg.Endpoint == "" {
		f.logger.Info("No classifier endpoint configured")
		return nil, nil
	}

	timeout, err := f.cfg.GetDuration("classifier.timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid classifier timeout: %w", err)
	}
	resetTimeout, err := f.cfg.GetDuration("classifier.breaker_reset_timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid classifier breaker reset timeout: %w", err)
	}

	maxFailures := classifierCfg.BreakerMaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}

	f.logger.Info("Using TorchServe classifier",
		zap.String("endpoint", classifierCfg.Endpoint),
		zap.String("model", classifierCfg.Model))

	return torchserve.NewClassifier(torchserve.Config{
		BaseURL:             classifierCfg.Endpoint,
		ModelName:           classifierCfg.Model,
		Timeout:             timeout,
		BreakerMaxFailures:  uint32(maxFailures),
		BreakerResetTimeout: resetTimeout,
	}, f.logger), nil
}
