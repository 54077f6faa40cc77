package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"storefront/internal/domain"
)

// EventOrderPlaced is published once per newly created order.
const EventOrderPlaced = "order.placed"

// Publisher emits order events for downstream fulfillment.
type Publisher interface {
	OrderPlaced(ctx context.Context, o domain.Order) error
	Close() error
}

// OrderPlacedPayload is the JSON body of an order.placed message.
type OrderPlacedPayload struct {
	OrderID       string            `json:"order_id"`
	UserID        string            `json:"user_id"`
	Items         []domain.CartLine `json:"items"`
	TotalAmount   string            `json:"total_amount"`
	PaymentMethod string            `json:"payment_method"`
	Address       string            `json:"address"`
	PlacedAt      time.Time         `json:"placed_at"`
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewKafka returns a publisher writing to topic on the given brokers.
func NewKafka(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
	return NewWithWriter(w)
}

// NewWithWriter wraps an existing writer.
func NewWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: 5 * time.Second}
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, o domain.Order) error {
	payload, err := json.Marshal(OrderPlacedPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Items:         o.Items,
		TotalAmount:   o.TotalAmount.StringFixed(2),
		PaymentMethod: string(o.PaymentMethod),
		Address:       o.Address,
		PlacedAt:      o.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order.placed payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(o.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order.placed id=%s: %w", o.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop discards events; used when no broker is configured.
type Nop struct{}

func (Nop) OrderPlaced(context.Context, domain.Order) error { return nil }
func (Nop) Close() error                                    { return nil }
