package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventHandler processes one decoded booking event.
type EventHandler func(ctx context.Context, event BookingEvent) error

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads booking events until the context is canceled or the handler
// fails. Messages that do not decode are logged and skipped; events whose
// type does not match eventType are skipped. An empty eventType matches
// every event.
func (c *Consumer) Consume(ctx context.Context, eventType string, handler EventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		if err := dispatch(ctx, msg.Value, eventType, handler); err != nil {
			return err
		}
	}
}

func dispatch(ctx context.Context, value []byte, eventType string, handler EventHandler) error {
	var event BookingEvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("skipping undecodable event: %v", err)
		return nil
	}
	if eventType != "" && event.Type != eventType {
		return nil
	}
	return handler(ctx, event)
}
