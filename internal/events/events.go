package events

import (
	"context"
	"time"
)

// Type names a domain event. Values are used as the AMQP message type.
type Type string

const (
	ConsumerCreated       Type = "consumer.created"
	DeliveryStatusChanged Type = "delivery.status_changed"
	BillPaid              Type = "bill.paid"
)

// Event is the JSON body published for every domain event.
type Event struct {
	Type       Type                   `json:"type"`
	ResourceID string                 `json:"resourceId"`
	ActorID    string                 `json:"actorId,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Publisher delivers domain events to downstream systems. Publishing is best effort:
// services log a failed Publish and carry on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. It is used when AMQP_URL is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
