package di

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/factory"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/logging"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/server"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewPipelineFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewAuditFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewEscalationFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewEventsFactory); err != nil {
		return nil, err
	}

	// Register pipeline configuration
	if err := container.Provide(func(f *factory.PipelineFactory) (core.ModerationConfig, error) {
		return f.CreateModerationConfig()
	}); err != nil {
		return nil, err
	}

	// Register tokenizer
	if err := container.Provide(func(f *factory.PipelineFactory) (core.Tokenizer, error) {
		return f.CreateTokenizer()
	}); err != nil {
		return nil, err
	}

	// Register keyword filter
	if err := container.Provide(func(f *factory.PipelineFactory) (core.KeywordChecker, error) {
		return f.CreateKeywordFilter()
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.TextClassifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register result cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.ResultCache, error) {
		return f.CreateResultCache()
	}); err != nil {
		return nil, err
	}

	// Register decision audit log
	if err := container.Provide(func(f *factory.AuditFactory) (core.DecisionLog, error) {
		return f.CreateDecisionLog()
	}); err != nil {
		return nil, err
	}

	// Register escalation worker
	if err := container.Provide(func(f *factory.EscalationFactory, decisionLog core.DecisionLog) (core.Escalator, error) {
		return f.CreateEscalator(decisionLog)
	}); err != nil {
		return nil, err
	}

	// Register decision event publisher
	if err := container.Provide(func(f *factory.EventsFactory) (core.EventPublisher, error) {
		return f.CreateEventPublisher()
	}); err != nil {
		return nil, err
	}

	// Register moderation service
	if err := container.Provide(core.NewModerationService); err != nil {
		return nil, err
	}

	// Register HTTP handler and router
	if err := container.Provide(server.NewModerationHandler); err != nil {
		return nil, err
	}
	if err := container.Provide(func(handler *server.ModerationHandler, logger *zap.Logger) *gin.Engine {
		return server.NewRouter(handler, logger)
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(cfg *config.Config) (server.Config, error) {
		readTimeout, err := cfg.GetDuration("server.read_timeout")
		if err != nil {
			return server.Config{}, fmt.Errorf("invalid server read timeout: %w", err)
		}
		writeTimeout, err := cfg.GetDuration("server.write_timeout")
		if err != nil {
			return server.Config{}, fmt.Errorf("invalid server write timeout: %w", err)
		}
		return server.Config{
			ListenAddress: cfg.GetServer().ListenAddress,
			ReadTimeout:   readTimeout,
			WriteTimeout:  writeTimeout,
		}, nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(server.NewServer); err != nil {
		return nil, err
	}

	return container, nil
}
