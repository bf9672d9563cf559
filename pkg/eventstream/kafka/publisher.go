// Package kafka provides a Kafka-backed eventstream publisher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/reweaveco/reweave/pkg/eventstream"
)

const defaultWriteTimeout = 10 * time.Second

// Publisher publishes artifact events to a Kafka topic. Messages are keyed by
// artifact ID so all events for one artifact land in the same partition.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a Kafka publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			WriteTimeout: defaultWriteTimeout,
			// The gateway publishes from its worker pool, off the HTTP hot
			// path, so synchronous writes with delivery errors are preferred
			// over fire-and-forget.
			Async: false,
		},
	}, nil
}

// PublishArtifact serializes the event as JSON and writes it to the topic.
func (p *Publisher) PublishArtifact(ctx context.Context, event *eventstream.ArtifactCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilArtifactEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.ArtifactID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(fmt.Sprintf("%d", event.SchemaVersion))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing to kafka: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
