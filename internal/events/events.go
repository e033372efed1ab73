// Package events publishes client activity (cart changes, placed orders,
// verified payments) to Kafka.
package events

import (
	"context"
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/mykafka"
	"github.com/google/uuid"
)

const (
	TopicCart  = "cart_events"
	TopicOrder = "order_events"
)

const (
	TypeCartItemAdded   = "cart_item_added"
	TypeCartItemRemoved = "cart_item_removed"
	TypeCartCleared     = "cart_cleared"
	TypeOrderPlaced     = "order_placed"
	TypePaymentVerified = "payment_verified"
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	UserPhone  string         `json:"user_phone,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func New(typ, userPhone string, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		UserPhone:  userPhone,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
}

type Noop struct{}

func (Noop) Publish(context.Context, string, Event) error { return nil }

type producer interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// Kafka publishes events keyed by user phone so one user's events stay
// ordered within a partition.
type Kafka struct {
	p producer
}

func NewKafka(p *mykafka.Producer) *Kafka {
	return &Kafka{p: p}
}

func (k *Kafka) Publish(ctx context.Context, topic string, ev Event) error {
	key := ev.UserPhone
	if key == "" {
		key = ev.ID
	}
	return k.p.PublishEvent(ctx, topic, key, ev)
}

// Emit publishes and only logs failures; activity events never fail the
// user action that produced them.
func Emit(ctx context.Context, pub Publisher, topic string, ev Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
