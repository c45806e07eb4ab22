package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestInMemoryBus_PublishSyncRunsHandlersInOrder(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls []string
	for _, id := range []string{"first", "second", "third"} {
		id := id
		bus.Subscribe("thing", HandlerFunc(func(context.Context, Event) error {
			calls = append(calls, id)
			return nil
		}))
	}
	bus.Subscribe("other", HandlerFunc(func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	}))

	require.NoError(t, bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing"}))
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestInMemoryBus_PublishSyncJoinsErrorsAndRecoversPanics(t *testing.T) {
	bus := NewInMemoryBus(nil)
	errFirst := errors.New("first failed")
	ran := false
	bus.Subscribe("thing", HandlerFunc(func(context.Context, Event) error { return errFirst }))
	bus.Subscribe("thing", HandlerFunc(func(context.Context, Event) error { panic("boom") }))
	bus.Subscribe("thing", HandlerFunc(func(context.Context, Event) error {
		ran = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{name: "thing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errFirst)
	assert.Contains(t, err.Error(), "handler panic: boom")
	assert.True(t, ran, "handlers after a failing one still run")
}

func TestInMemoryBus_PublishIsAsync(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe("thing", HandlerFunc(func(context.Context, Event) error {
		wg.Done()
		return nil
	}))

	bus.Publish(context.Background(), testEvent{name: "thing"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}
}

func TestInMemoryBus_HandlersSeeEventTimestamp(t *testing.T) {
	bus := NewInMemoryBus(nil)
	before := time.Now()
	var got time.Time
	bus.Subscribe("thing", HandlerFunc(func(_ context.Context, e Event) error {
		got = e.OccurredAt()
		return nil
	}))

	require.NoError(t, bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing"}))
	assert.False(t, got.Before(before))
	assert.False(t, got.After(time.Now()))
}
