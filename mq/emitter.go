// Package mq publishes domain events to redis pub/sub.
package mq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"blackline/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// OrdersChannel carries order lifecycle events.
const OrdersChannel = "order-events"

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the JSON payload published on OrdersChannel.
type OrderEvent struct {
	Event   string             `json:"event"`
	OrderID string             `json:"order_id"`
	UserID  string             `json:"user_id,omitempty"`
	Session string             `json:"session_id,omitempty"`
	Status  models.OrderStatus `json:"status"`
	Total   models.Money       `json:"total"`
	Items   int                `json:"items"`
	At      time.Time          `json:"at"`
}

func NewOrderEvent(name string, o *models.Order) OrderEvent {
	evt := OrderEvent{
		Event:   name,
		OrderID: o.ID.Hex(),
		Session: o.SessionID,
		Status:  o.Status,
		Total:   o.Total,
		Items:   len(o.Items),
		At:      time.Now().UTC(),
	}
	if o.IsUser() {
		evt.UserID = o.User.Hex()
	}
	return evt
}

// Publisher emits events. Emit never fails the caller; delivery problems are
// logged by the implementation.
type Publisher interface {
	Emit(ctx context.Context, evt OrderEvent)
}

type RedisPublisher struct {
	Conn    *redis.Client
	Channel string
	Log     logrus.FieldLogger
}

func (p *RedisPublisher) Emit(ctx context.Context, evt OrderEvent) {
	log := p.Log.WithFields(logrus.Fields{"event": evt.Event, "order": evt.OrderID})

	data, err := json.Marshal(evt)
	if err != nil {
		log.WithError(err).Error("marshal event")
		return
	}
	if err := p.Conn.Publish(ctx, p.Channel, data).Err(); err != nil {
		log.WithError(err).Warn("publish event")
		return
	}
	log.Debug("event published")
}

// LogPublisher only logs events; used when redis is not configured.
type LogPublisher struct {
	Log logrus.FieldLogger
}

func (p LogPublisher) Emit(ctx context.Context, evt OrderEvent) {
	p.Log.WithFields(logrus.Fields{"event": evt.Event, "order": evt.OrderID}).Debug("event (no broker)")
}

// NewPublisher picks the redis publisher when a connection is available.
func NewPublisher(conn *redis.Client, log logrus.FieldLogger) Publisher {
	if conn == nil {
		return LogPublisher{Log: log}
	}
	return &RedisPublisher{Conn: conn, Channel: OrdersChannel, Log: log}
}

// Recorder keeps emitted events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (r *Recorder) Emit(ctx context.Context, evt OrderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *Recorder) Events() []OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OrderEvent(nil), r.events...)
}
