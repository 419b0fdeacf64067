package memory

import (
	"context"
	"testing"
	"time"

	"github.com/convreg/convreg/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	received := make(chan ports.Event, 1)
	err := b.Subscribe(ctx, "registry.events", func(ctx context.Context, e ports.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)

	event := ports.Event{
		ID:       "evt-1",
		Type:     ports.EventTypeURLRegistered,
		URL:      "csv://data/a",
		MimeType: "text/csv",
	}
	require.NoError(t, b.Publish(ctx, "registry.events", event))

	select {
	case got := <-received:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, event.Type, got.Type)
		assert.Equal(t, event.URL, got.URL)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublish_TopicIsolation(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	received := make(chan ports.Event, 1)
	err := b.Subscribe(ctx, "registry.events", func(ctx context.Context, e ports.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "conversion.requests", ports.Event{ID: "other"}))

	select {
	case e := <-received:
		t.Fatalf("unexpected event on other topic: %s", e.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublish_MultipleSubscribers(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	first := make(chan ports.Event, 1)
	second := make(chan ports.Event, 1)
	require.NoError(t, b.Subscribe(ctx, "registry.events", func(ctx context.Context, e ports.Event) error {
		first <- e
		return nil
	}))
	require.NoError(t, b.Subscribe(ctx, "registry.events", func(ctx context.Context, e ports.Event) error {
		second <- e
		return nil
	}))

	require.NoError(t, b.Publish(ctx, "registry.events", ports.Event{ID: "evt-1"}))

	for _, ch := range []chan ports.Event{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, "evt-1", got.ID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered to all subscribers")
		}
	}
}

func TestSubscribe_ContextCancel(t *testing.T) {
	b := NewBus()
	subCtx, cancel := context.WithCancel(context.Background())

	received := make(chan ports.Event, 1)
	require.NoError(t, b.Subscribe(subCtx, "registry.events", func(ctx context.Context, e ports.Event) error {
		received <- e
		return nil
	}))

	cancel()

	// Removal happens asynchronously on ctx.Done.
	require.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.subscribers["registry.events"]) == 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, b.Publish(context.Background(), "registry.events", ports.Event{ID: "evt-1"}))

	select {
	case e := <-received:
		t.Fatalf("event delivered after unsubscribe: %s", e.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	require.NoError(t, b.Subscribe(ctx, "registry.events", func(ctx context.Context, e ports.Event) error {
		return nil
	}))
	require.NoError(t, b.Unsubscribe(ctx, "registry.events"))

	b.mu.RLock()
	defer b.mu.RUnlock()
	assert.Empty(t, b.subscribers["registry.events"])
}

func TestClose(t *testing.T) {
	b := NewBus()
	ctx := context.Background()

	require.NoError(t, b.Subscribe(ctx, "registry.events", func(ctx context.Context, e ports.Event) error {
		return nil
	}))
	require.NoError(t, b.Close())

	b.mu.RLock()
	defer b.mu.RUnlock()
	assert.Empty(t, b.subscribers)
}
