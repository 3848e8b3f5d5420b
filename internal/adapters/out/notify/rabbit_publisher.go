package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	SessionRoutingPrefix = "session."
	PushRoutingPrefix    = "push."
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type wireNotification struct {
	ID              string            `json:"id"`
	RecipientUserID string            `json:"recipient_user_id"`
	Kind            string            `json:"kind"`
	Title           string            `json:"title"`
	Message         string            `json:"message"`
	OrderID         string            `json:"order_id"`
	Data            map[string]string `json:"data,omitempty"`
	SentAt          time.Time         `json:"sent_at"`
}

// RabbitPublisher publishes notifications to a topic exchange. Users with an
// open session get session.<user_id>; everyone else gets push.<user_id> for the
// push gateway to pick up.
type RabbitPublisher struct {
	ch       Channel
	exchange string
	sessions *SessionRouter
	now      func() time.Time
}

func NewRabbitPublisher(ch Channel, exchange string, sessions *SessionRouter, now func() time.Time) *RabbitPublisher {
	return &RabbitPublisher{ch: ch, exchange: exchange, sessions: sessions, now: now}
}

// DeclareExchange creates the durable topic exchange if it does not exist.
func DeclareExchange(ch *amqp.Channel, name string) error {
	if err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %q: %w", name, err)
	}
	return nil
}

func (p *RabbitPublisher) Notify(ctx context.Context, n ports.Notification) error {
	id := kernel.NewUUID().String()
	sentAt := p.now().UTC()

	body, err := json.Marshal(wireNotification{
		ID:              id,
		RecipientUserID: n.RecipientUserID.String(),
		Kind:            string(n.Kind),
		Title:           n.Title,
		Message:         n.Message,
		OrderID:         n.OrderID.String(),
		Data:            n.Data,
		SentAt:          sentAt,
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	key := p.RoutingKey(n)
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    sentAt,
		Type:         string(n.Kind),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// RoutingKey picks the live-session or push route for the recipient.
func (p *RabbitPublisher) RoutingKey(n ports.Notification) string {
	if p.sessions != nil && p.sessions.Online(n.RecipientUserID) {
		return SessionRoutingPrefix + n.RecipientUserID.String()
	}
	return PushRoutingPrefix + n.RecipientUserID.String()
}
