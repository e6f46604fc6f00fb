package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/province-weather-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher announces written snapshots on a Kafka topic.
// It implements pipeline.Notifier.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the snapshot topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes one message per snapshot, keyed by job so that events of one
// job stay ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, event domain.SnapshotEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot event: %w", err)
	}
	p.logger.Debug("snapshot event published", "job", event.Job, "run_id", event.RunID, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a SnapshotEvent into a Kafka message.
func serializeToMessage(event domain.SnapshotEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Job),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "job", Value: []byte(event.Job)},
			{Key: "generated_at", Value: []byte(event.GeneratedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
