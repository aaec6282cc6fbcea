package eventbus

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startedPayload struct {
	Chunks int `json:"chunks"`
}

func TestEnvelopeRoundTrip(t *testing.T) {
	ev, err := NewEnvelope("worldgen", EventGenerationStarted, "run-1", startedPayload{Chunks: 12})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "run-1", ev.RunID)

	var p startedPayload
	require.NoError(t, ev.Decode(&p))
	assert.Equal(t, 12, p.Chunks)
}

func TestMemoryBusDeliversInOrder(t *testing.T) {
	bus := NewMemoryBus(8)

	got := make(chan string, 3)
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		got <- ev.EventType
	})
	require.NoError(t, err)

	for _, typ := range []string{EventGenerationStarted, EventGenerationCompleted, EventMeshPublished} {
		ev, err := NewEnvelope("worldgen", typ, "run", nil)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, EventGenerationStarted, <-got)
	assert.Equal(t, EventGenerationCompleted, <-got)
	assert.Equal(t, EventMeshPublished, <-got)

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(3), stats.Consumed)
	assert.Equal(t, 0, stats.InFlight)
}

func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()

	got := make(chan *Envelope, 4)
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventGenerationCompleted}}, func(ctx context.Context, ev *Envelope) {
		got <- ev
	})
	require.NoError(t, err)

	started, _ := NewEnvelope("worldgen", EventGenerationStarted, "r", nil)
	completed, _ := NewEnvelope("worldgen", EventGenerationCompleted, "r", nil)
	require.NoError(t, bus.Publish(context.Background(), started))
	require.NoError(t, bus.Publish(context.Background(), completed))

	select {
	case ev := <-got:
		assert.Equal(t, EventGenerationCompleted, ev.EventType)
	case <-time.After(2 * time.Second):
		t.Fatal("событие не доставлено")
	}
	assert.Len(t, got, 0)
}

func TestMemoryBusUnsubscribeAndClose(t *testing.T) {
	bus := NewMemoryBus(8)

	calls := 0
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		calls++
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	ev, _ := NewEnvelope("worldgen", EventMeshPublished, "r", nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Close())
	assert.Equal(t, 0, calls)

	assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrClosed)
	_, err = bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, bus.Close())
}

func TestFilterMatch(t *testing.T) {
	ev, _ := NewEnvelope("worldgen", EventMeshPublished, "run-2", nil)

	assert.True(t, Filter{}.Match(ev))
	assert.True(t, Filter{RunIDs: []string{"run-1", "run-2"}}.Match(ev))
	assert.False(t, Filter{RunIDs: []string{"run-1"}}.Match(ev))
	assert.False(t, Filter{Types: []string{EventMeshPublished}, Sources: []string{"api"}}.Match(ev))
}

func TestMemoryBusFanOutInSubscriptionOrder(t *testing.T) {
	bus := NewMemoryBus(4)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {
			order = append(order, name)
		})
		require.NoError(t, err)
	}

	ev, _ := NewEnvelope("worldgen", EventGenerationStarted, "r", nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Close())

	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, uint64(3), bus.Metrics().Consumed)
}

func TestMemoryBusPublishFromHandlerDoesNotBlock(t *testing.T) {
	bus := NewMemoryBus(1)

	results := make(chan []error, 1)
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventGenerationStarted}}, func(ctx context.Context, ev *Envelope) {
		var errs []error
		for i := 0; i < 3; i++ {
			next, _ := NewEnvelope("worldgen", EventMeshPublished, ev.RunID, nil)
			errs = append(errs, bus.Publish(ctx, next))
		}
		results <- errs
	})
	require.NoError(t, err)

	ev, _ := NewEnvelope("worldgen", EventGenerationStarted, "r", nil)
	require.NoError(t, bus.Publish(context.Background(), ev))

	select {
	case errs := <-results:
		// первое событие занимает единственное место в буфере
		assert.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], ErrBufferFull)
		assert.ErrorIs(t, errs[2], ErrBufferFull)
	case <-time.After(2 * time.Second):
		t.Fatal("обработчик завис на публикации")
	}

	require.NoError(t, bus.Close())
	stats := bus.Metrics()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(2), stats.Dropped)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "voxel.GenerationCompleted", Subject(EventGenerationCompleted))
}

func TestLoggingListener(t *testing.T) {
	var buf bytes.Buffer
	bus := NewMemoryBus(4)
	sub, err := StartLoggingListener(bus, logging.NewConsoleLogger("events", &buf, logging.INFO))
	require.NoError(t, err)
	defer sub.Unsubscribe()

	ev, _ := NewEnvelope("worldgen", EventGenerationStarted, "run-7", nil)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Close())
	assert.Equal(t, uint64(1), bus.Metrics().Consumed)
	assert.Contains(t, buf.String(), "GenerationStarted run=run-7 src=worldgen")
	assert.NotContains(t, buf.String(), "LoggingListener")
}
