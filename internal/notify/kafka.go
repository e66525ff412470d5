package notify

import (
	"context"
	"fmt"
	"time"

	"discount-codes/internal/config"
	"discount-codes/internal/model"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used for publishing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter creates a writer for the configured topic. Messages with the
// same key land on the same partition.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher writes events to Kafka as JSON, keyed by event type.
type KafkaPublisher struct {
	writer MessageWriter
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher on top of writer.
func NewKafkaPublisher(writer MessageWriter, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "kafka_publisher").Logger(),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Type),
		Value: value,
		Time:  event.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish event")
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().Str("event_type", string(event.Type)).Msg("event published")
	return nil
}

// Close flushes pending messages and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
