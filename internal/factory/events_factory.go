package factory

import (
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/adapters/events"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// EventsFactory creates decision event publishers
type EventsFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEventsFactory creates a new events factory
func NewEventsFactory(cfg *config.Config, logger *zap.Logger) *EventsFactory {
	return &EventsFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEventPublisher creates the Kafka publisher when the event stream is
// enabled.
func (f *EventsFactory) CreateEventPublisher() (core.EventPublisher, error) {
	eventsCfg := f.cfg.GetEvents()
	if !eventsCfg.Enabled {
		return nil, nil
	}

	return events.NewKafkaPublisher(events.KafkaConfig{
		BootstrapServers: eventsCfg.KafkaBootstrapServers,
		Topic:            eventsCfg.KafkaTopic,
	}, f.logger)
}
