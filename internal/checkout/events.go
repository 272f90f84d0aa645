package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andeanmarket/storefront/internal/order"
	"github.com/segmentio/kafka-go"
)

const (
	EventOrderConfirmed = "order.confirmed"
	EventOrderCancelled = "order.cancelled"
)

// OrderEvent is the payload published when an order changes state through
// checkout or cancellation.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     int64     `json:"user_id"`
	Total      float64   `json:"total"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, o *order.Order) error
}

// KafkaPublisher writes order events to a single topic, keyed by order id
// for per-order ordering.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  "storefront-orders",
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, o *order.Order) error {
	payload, err := json.Marshal(OrderEvent{
		Type:       eventType,
		OrderID:    o.ID.String(),
		UserID:     o.UserID,
		Total:      o.Total,
		Status:     o.Status.String(),
		OccurredAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(o.ID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used in tests and when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, *order.Order) error { return nil }
