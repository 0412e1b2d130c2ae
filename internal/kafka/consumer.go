package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/segmentio/kafka-go"

	"ms-reporting/internal/logger"
	"ms-reporting/internal/models"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader messageReader
	topic  string
	log    *logger.Logger
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, topic: topic, log: log}
}

// Run delivers import events to handler until ctx is cancelled or the reader
// is closed. Undecodable messages and handler errors are logged and skipped.
func (c *Consumer) Run(ctx context.Context, handler func(context.Context, models.ImportCompleted) error) error {
	c.log.LogKafka("SUBSCRIBE", c.topic, "🔄 Kafka consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			// io.EOF means the reader was closed.
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read from %s: %w", c.topic, err)
		}

		var event models.ImportCompleted
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.log.Warn("KAFKA", fmt.Sprintf("⚠️ Failed to unmarshal message at offset %d: %v", msg.Offset, err))
			continue
		}

		c.log.LogKafka("RECEIVE", c.topic, fmt.Sprintf("📩 Import %s finished: %d inserted", event.RunID, event.Inserted))
		if err := handler(ctx, event); err != nil {
			c.log.Error("KAFKA", fmt.Sprintf("Import event %s handler failed: %v", event.RunID, err))
		}
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
