// Package events carries "record changed" notifications from the
// persistence layer to anything that wants to refresh: other services,
// edit sessions and connected browser clients.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ChangeType says what happened to a record.
type ChangeType string

const (
	ChangeSaved   ChangeType = "record.saved"
	ChangeRemoved ChangeType = "record.removed"
)

// AllTopics subscribes a handler to every topic.
const AllTopics = "*"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("events: bus closed")

// Event describes one change to one record. Topic is the record kind
// ("provider", "policy", ...).
type Event struct {
	Type         ChangeType      `json:"type"`
	Topic        string          `json:"topic"`
	ResourceType string          `json:"resourceType"`
	ResourceID   string          `json:"resourceId,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// Handler receives published events.
type Handler func(ctx context.Context, e Event)

// Publisher is what the persistence layer depends on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Bus is a synchronous, in-process observer registry. Handlers run on the
// publishing goroutine in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]*Subscription
	nextID uint64
	closed bool
	logger zerolog.Logger
}

// Subscription is returned by Subscribe; call Unsubscribe to stop delivery.
type Subscription struct {
	id      uint64
	topic   string
	handler Handler
	bus     *Bus
	once    sync.Once
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]*Subscription),
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers h for events on topic (or AllTopics).
func (b *Bus) Subscribe(topic string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, topic: topic, handler: h, bus: b}
	if b.closed {
		return sub
	}
	b.subs[topic] = append(b.subs[topic], sub)
	return sub
}

// Unsubscribe stops delivery to this subscription. Safe to call more than
// once and from inside a handler.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s)
	})
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[s.topic]
	for i, cur := range list {
		if cur.id == s.id {
			next := make([]*Subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(b.subs, s.topic)
			} else {
				b.subs[s.topic] = next
			}
			return
		}
	}
}

// Publish delivers e to the subscribers of e.Topic and then to AllTopics
// subscribers. A panicking handler is logged and does not stop delivery.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*Subscription, 0, len(b.subs[e.Topic])+len(b.subs[AllTopics]))
	targets = append(targets, b.subs[e.Topic]...)
	if e.Topic != AllTopics {
		targets = append(targets, b.subs[AllTopics]...)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		b.deliver(ctx, sub, e)
	}
	return nil
}

func (b *Bus) deliver(ctx context.Context, sub *Subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				Str("topic", e.Topic).
				Str("resource_id", e.ResourceID).
				Msg("event handler panicked")
		}
	}()
	sub.handler(ctx, e)
}

// SubscriberCount returns the number of live subscriptions on topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close drops every subscription; later publishes fail with ErrClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string][]*Subscription)
}
