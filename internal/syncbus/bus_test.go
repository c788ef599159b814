package syncbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish_DeliversInSubscriptionOrder(t *testing.T) {
	bus := New()

	var got []string
	bus.Subscribe(TopicCartUpdated, func(_ context.Context, _ Event) {
		got = append(got, "first")
	})
	bus.Subscribe(TopicCartUpdated, func(_ context.Context, _ Event) {
		got = append(got, "second")
	})

	bus.Publish(context.Background(), TopicCartUpdated, nil)

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestPublish_PayloadPassthrough(t *testing.T) {
	bus := New()

	var got Event
	bus.Subscribe(TopicSearchApplied, func(_ context.Context, ev Event) {
		got = ev
	})

	bus.Publish(context.Background(), TopicSearchApplied, "laptops")

	assert.Equal(t, TopicSearchApplied, got.Topic)
	assert.Equal(t, "laptops", got.Payload)
}

func TestPublish_TopicIsolation(t *testing.T) {
	bus := New()

	calls := 0
	bus.Subscribe(TopicSearchCleared, func(_ context.Context, _ Event) {
		calls++
	})

	bus.Publish(context.Background(), TopicSearchApplied, "x")
	bus.Publish(context.Background(), TopicCartUpdated, nil)

	assert.Zero(t, calls)
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	bus := New()

	calls := 0
	cancel := bus.Subscribe(TopicCartUpdated, func(_ context.Context, _ Event) {
		calls++
	})

	bus.Publish(context.Background(), TopicCartUpdated, nil)
	cancel()
	bus.Publish(context.Background(), TopicCartUpdated, nil)

	assert.Equal(t, 1, calls)
}

func TestSubscribe_NoReplayForLateSubscribers(t *testing.T) {
	bus := New()

	bus.Publish(context.Background(), TopicCartUpdated, nil)

	calls := 0
	bus.Subscribe(TopicCartUpdated, func(_ context.Context, _ Event) {
		calls++
	})

	assert.Zero(t, calls, "a subscriber must not receive events published before it subscribed")
}

func TestPublish_SubscriberMayPublish(t *testing.T) {
	bus := New()

	var relayed []Topic
	bus.Subscribe(TopicStorageChanged, func(ctx context.Context, ev Event) {
		if key, ok := ev.Payload.(string); ok && key == "cart" {
			bus.Publish(ctx, TopicCartUpdated, nil)
		}
	})
	bus.Subscribe(TopicCartUpdated, func(_ context.Context, ev Event) {
		relayed = append(relayed, ev.Topic)
	})

	bus.Publish(context.Background(), TopicStorageChanged, "cart")

	assert.Equal(t, []Topic{TopicCartUpdated}, relayed)
}
