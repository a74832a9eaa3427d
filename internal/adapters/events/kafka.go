// Package events publishes moderation decision events to downstream
// consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// KafkaConfig holds the settings for the Kafka publisher.
type KafkaConfig struct {
	BootstrapServers string
	Topic            string
}

// KafkaPublisher emits one event per moderation decision to a Kafka topic.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *zap.Logger
}

// NewKafkaPublisher creates a new Kafka event publisher.
func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if cfg.BootstrapServers == "" {
		return nil, fmt.Errorf("kafka publisher requires bootstrap servers")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logger.Info("Using Kafka decision event publisher",
		zap.String("bootstrap_servers", cfg.BootstrapServers),
		zap.String("topic", cfg.Topic))

	return &KafkaPublisher{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger,
	}, nil
}

// Publish sends one decision event and waits for broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, event *core.DecisionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal decision event: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.ID),
		Value:          data,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("failed to enqueue decision event: %w", err)
	}

	select {
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected kafka delivery event: %v", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("failed to deliver decision event: %w", msg.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	p.logger.Debug("Decision event published",
		zap.String("decision_id", event.ID),
		zap.String("topic", p.topic))

	return nil
}

// Close flushes pending events and releases the producer.
func (p *KafkaPublisher) Close() error {
	remaining := p.producer.Flush(5000)
	if remaining > 0 {
		p.logger.Warn("Kafka producer closed with undelivered events",
			zap.Int("remaining", remaining))
	}
	p.producer.Close()
	return nil
}
