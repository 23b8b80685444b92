package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/event"
)

// Publisher is the part of helpers.RabbitPublisher the adapters use.
type Publisher interface {
	PublishTyped(ctx context.Context, typ string, body any) error
}

// Envelope wraps a domain event on the wire. Payload is the event itself.
type Envelope struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

func NewEnvelope(e event.Event) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", e.Name(), err)
	}
	return Envelope{
		ID:          uuid.NewString(),
		Name:        e.Name(),
		AggregateID: e.AggregateID(),
		OccurredAt:  e.OccurredAt(),
		Payload:     payload,
	}, nil
}

// EventPublisher sends each domain event as its own message, with the AMQP
// type set to the event name.
type EventPublisher struct {
	pub Publisher
}

func NewEventPublisher(pub Publisher) *EventPublisher {
	return &EventPublisher{pub: pub}
}

func (p *EventPublisher) Publish(ctx context.Context, events ...event.Event) error {
	for _, e := range events {
		env, err := NewEnvelope(e)
		if err != nil {
			return err
		}
		if err := p.pub.PublishTyped(ctx, env.Name, env); err != nil {
			return fmt.Errorf("publish %s: %w", env.Name, err)
		}
	}
	return nil
}

var _ application.EventPublisher = (*EventPublisher)(nil)
