package syncbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xenking/storefront/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// eventRecorder collects published events across goroutines.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// startWatcher runs a watcher for the test and blocks until its baseline is
// established, so writes made by the test afterwards are always detected.
func startWatcher(t *testing.T, kv *memory.Store, bus *Bus) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := NewWatcher(kv, bus, 5*time.Millisecond, nil)
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	<-w.Ready()

	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_PublishesExternalChange(t *testing.T) {
	kv := memory.New()
	bus := New()
	rec := &eventRecorder{}
	bus.Subscribe(TopicStorageChanged, rec.record)

	startWatcher(t, kv, bus)

	// Simulate another process writing the shared store.
	require.NoError(t, kv.Set(context.Background(), "cart", []byte(`[]`)))

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) > 0
	}, time.Second, 5*time.Millisecond)

	ev := rec.snapshot()[0]
	assert.Equal(t, TopicStorageChanged, ev.Topic)
	assert.Equal(t, "cart", ev.Payload)
}

func TestWatcher_BaselineIsNotReplayed(t *testing.T) {
	kv := memory.New()
	require.NoError(t, kv.Set(context.Background(), "cart", []byte(`[]`)))
	require.NoError(t, kv.Set(context.Background(), "orders_v1", []byte(`[]`)))

	bus := New()
	rec := &eventRecorder{}
	bus.Subscribe(TopicStorageChanged, rec.record)

	startWatcher(t, kv, bus)

	// Records that existed before the watcher started stay quiet.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestWatcher_ReadySeparatesBaselineFromChanges(t *testing.T) {
	kv := memory.New()
	require.NoError(t, kv.Set(context.Background(), "cart", []byte(`[]`)))

	bus := New()
	rec := &eventRecorder{}
	bus.Subscribe(TopicStorageChanged, rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := NewWatcher(kv, bus, 5*time.Millisecond, nil)
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Everything written before Ready is baseline; the first write after
	// Ready must be published.
	<-w.Ready()
	require.NoError(t, kv.Set(context.Background(), "cart", []byte(`[{"id":1}]`)))

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "cart", rec.snapshot()[0].Payload)
}

func TestWatcher_ReportsEachChangedKey(t *testing.T) {
	kv := memory.New()
	bus := New()
	rec := &eventRecorder{}
	bus.Subscribe(TopicStorageChanged, rec.record)

	startWatcher(t, kv, bus)

	require.NoError(t, kv.Set(context.Background(), "cart", []byte(`[]`)))
	require.NoError(t, kv.Set(context.Background(), "userReviews", []byte(`{}`)))

	require.Eventually(t, func() bool {
		keys := map[string]bool{}
		for _, ev := range rec.snapshot() {
			if key, ok := ev.Payload.(string); ok {
				keys[key] = true
			}
		}
		return keys["cart"] && keys["userReviews"]
	}, time.Second, 5*time.Millisecond)
}
