package events

import (
	"context"
	"fmt"
	"time"

	"travelpay/pkg/kafka"
	"travelpay/pkg/model"
)

const (
	EventTypeStatusChanged = "payment.status.changed"

	schemaVersion = "1"
	sourceService = "travelpay-payments"
)

type StatusChanged struct {
	PaymentID      string              `json:"paymentId"`
	OrderID        string              `json:"orderId"`
	Provider       model.Provider      `json:"provider"`
	Status         model.PaymentStatus `json:"status"`
	PreviousStatus model.PaymentStatus `json:"previousStatus"`
	OrderStatus    model.OrderStatus   `json:"orderStatus"`
	ProviderStatus string              `json:"providerStatus"`
	Source         string              `json:"source"`
	Amount         string              `json:"amount"`
	OccurredAt     time.Time           `json:"occurredAt"`
}

type Publisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChanged, correlationID string) error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer messagePublisher
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// PublishStatusChanged keys events by order id so a consumer sees an order's
// transitions in order.
func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, event StatusChanged, correlationID string) error {
	msg, err := kafka.NewMessage().
		WithKey(event.OrderID).
		WithValue(event).
		WithEventType(EventTypeStatusChanged).
		WithSchemaVersion(schemaVersion).
		WithSource(sourceService).
		WithCorrelationID(correlationID).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return fmt.Errorf("events: build %s: %w", EventTypeStatusChanged, err)
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("events: publish %s: %w", EventTypeStatusChanged, err)
	}
	return nil
}

// NoopPublisher is used when KAFKA_ENABLED is false.
type NoopPublisher struct{}

func (NoopPublisher) PublishStatusChanged(context.Context, StatusChanged, string) error {
	return nil
}
