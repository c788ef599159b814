// Package syncbus is the notification channel that keeps independent views
// consistent with persisted state. It replaces the original storefront's
// ad-hoc window events: an in-process publish/subscribe bus, plus a watcher
// that turns storage changes made by other processes into bus events.
package syncbus

import (
	"context"
	"slices"
	"sync"
)

// Topic identifies a notification channel on the bus.
type Topic string

const (
	// TopicCartUpdated carries the current cart as payload. A nil payload
	// means "re-read from storage" (used after cross-context changes and
	// after checkout clears the cart).
	TopicCartUpdated Topic = "cart.updated"

	// TopicSearchApplied and TopicSearchCleared coordinate a search box
	// shared across decoupled views. Payload is the search string.
	TopicSearchApplied Topic = "search.applied"
	TopicSearchCleared Topic = "search.cleared"

	// TopicStorageChanged is published by the Watcher when another process
	// modified a stored record. Payload is the changed record key.
	TopicStorageChanged Topic = "storage.changed"
)

// Event is a single published notification.
type Event struct {
	Topic   Topic
	Payload any
}

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(ctx context.Context, ev Event)

type subscription struct {
	id int64
	fn Handler
}

// Bus is a process-wide publish/subscribe channel. Publishing is
// fire-and-forget: events are delivered to the listeners subscribed at
// publish time, in subscription order, with no queueing or replay.
type Bus struct {
	mu     sync.Mutex
	nextID int64
	subs   map[Topic][]subscription
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers fn for events on topic and returns a cancel function
// that removes the subscription.
func (b *Bus) Subscribe(topic Topic, fn Handler) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs[topic] = slices.DeleteFunc(b.subs[topic], func(s subscription) bool {
			return s.id == id
		})
	}
}

// Publish delivers ev synchronously to all current subscribers of topic.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload any) {
	b.mu.Lock()
	current := slices.Clone(b.subs[topic])
	b.mu.Unlock()

	ev := Event{Topic: topic, Payload: payload}
	for _, s := range current {
		s.fn(ctx, ev)
	}
}
