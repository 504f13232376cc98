// Package ordersessions pushes purchased-order updates to live subscribers.
package ordersessions

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/internal/purchasedorders"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

// KitchenTopic receives every purchased order and progress change.
const KitchenTopic = "kitchen"

const defaultBuffer = 64

// ErrHubStopped is returned by Subscribe once Run has returned.
var ErrHubStopped = errors.New("order session hub stopped")

// OrderTopic receives progress updates for one purchased order.
func OrderTopic(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}

// Envelope is the JSON frame written to subscribers.
type Envelope struct {
	Type  string                 `json:"type"`
	Order purchasedorders.Detail `json:"order"`
}

type message struct {
	topic   string
	payload []byte
}

// Subscription receives the frames published to one topic. The channel
// returned by Messages is closed when the subscription ends, whether through
// Close, replacement by the same session id, or falling behind.
type Subscription struct {
	hub       *Hub
	topic     string
	sessionID string
	send      chan []byte
	closeOnce sync.Once
}

func (s *Subscription) Topic() string { return s.topic }

func (s *Subscription) Messages() <-chan []byte { return s.send }

func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
	})
}

// Hub routes frames to subscribers. All subscriber state is owned by the Run
// goroutine.
type Hub struct {
	topics     map[string]map[string]*Subscription
	register   chan *Subscription
	unregister chan *Subscription
	broadcast  chan message
	done       chan struct{}
	buffer     int
	logg       *logger.Logger
}

// NewHub builds a hub whose subscribers buffer up to buffer frames before they
// are dropped.
func NewHub(logg *logger.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		topics:     make(map[string]map[string]*Subscription),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		buffer:     buffer,
		logg:       logg,
	}
}

// Run processes subscriptions and broadcasts until ctx is cancelled, then
// closes every remaining subscription.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for _, subs := range h.topics {
			for _, sub := range subs {
				close(sub.send)
			}
		}
		h.topics = map[string]map[string]*Subscription{}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.register:
			subs := h.topics[sub.topic]
			if subs == nil {
				subs = make(map[string]*Subscription)
				h.topics[sub.topic] = subs
			}
			if previous, ok := subs[sub.sessionID]; ok {
				close(previous.send)
			}
			subs[sub.sessionID] = sub

		case sub := <-h.unregister:
			h.remove(sub)

		case msg := <-h.broadcast:
			for _, sub := range h.topics[msg.topic] {
				select {
				case sub.send <- msg.payload:
				default:
					h.remove(sub)
					if h.logg != nil {
						ctx := h.logg.WithSessionID(ctx, sub.sessionID)
						h.logg.Warn(ctx, "dropping slow order session subscriber")
					}
				}
			}
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	subs := h.topics[sub.topic]
	if current, ok := subs[sub.sessionID]; !ok || current != sub {
		return
	}
	delete(subs, sub.sessionID)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
}

// Subscribe registers sessionID on topic, replacing any earlier subscription
// with the same session id.
func (h *Hub) Subscribe(ctx context.Context, topic, sessionID string) (*Subscription, error) {
	sub := &Subscription{
		hub:       h,
		topic:     topic,
		sessionID: sessionID,
		send:      make(chan []byte, h.buffer),
	}
	select {
	case h.register <- sub:
		return sub, nil
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Publish queues a frame without blocking. Frames are dropped when the hub is
// saturated or stopped.
func (h *Hub) Publish(topic string, envelope Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		if h.logg != nil {
			h.logg.Error(context.Background(), "marshal order session frame", err)
		}
		return
	}
	select {
	case <-h.done:
	case h.broadcast <- message{topic: topic, payload: payload}:
	default:
		if h.logg != nil {
			h.logg.Warn(context.Background(), "order session hub saturated, frame dropped")
		}
	}
}

func (h *Hub) PublishPurchased(order models.PurchasedOrder) {
	envelope := Envelope{Type: string(enums.EventOrderPurchased), Order: purchasedorders.NewDetail(order)}
	h.Publish(KitchenTopic, envelope)
	h.Publish(OrderTopic(order.ID), envelope)
}

func (h *Hub) PublishProgress(order models.PurchasedOrder) {
	envelope := Envelope{Type: string(enums.EventOrderProgressUpdated), Order: purchasedorders.NewDetail(order)}
	h.Publish(KitchenTopic, envelope)
	h.Publish(OrderTopic(order.ID), envelope)
}
