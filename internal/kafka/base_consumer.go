package kafka

import (
	"context"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"
)

// BaseConsumer provides common functionality for all Kafka consumers
type BaseConsumer struct {
	Reader *kafka.Reader
}

// NewBaseConsumer creates a reader on topic. Reader is nil when the URL or topic is empty.
func NewBaseConsumer(kafkaURL, topic, groupID string) *BaseConsumer {
	if topic == "" || kafkaURL == "" {
		log.Println("Empty Kafka topic or URL provided, skipping consumer creation")
		return &BaseConsumer{Reader: nil}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{kafkaURL},
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
	})

	return &BaseConsumer{Reader: reader}
}

// Close closes the Kafka reader
func (c *BaseConsumer) Close() error {
	if c.Reader == nil {
		return nil
	}
	return c.Reader.Close()
}

// ConsumeMessages consumes messages from Kafka and passes them to the provided handler function
func (c *BaseConsumer) ConsumeMessages(ctx context.Context, handler func([]byte) error) {
	if c.Reader == nil {
		return
	}
	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Println("Context cancelled, stopping consumer")
				return
			}
			log.Printf("Error reading from Kafka: %v", err)
			continue
		}

		if err := handler(msg.Value); err != nil {
			log.Printf("Error processing message from topic %s: %v", msg.Topic, err)
		}
	}
}
