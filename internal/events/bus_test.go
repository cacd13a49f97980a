package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe(TopicBreakerTripped)
	for i := 0; i < 100; i++ {
		bus.Publish(Event{Topic: TopicBreakerTripped, Payload: i})
	}

	for i := 0; i < 100; i++ {
		select {
		case ev := <-ch:
			assert.Equal(t, i, ev.Payload)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestSubscribersAreIndependent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	fast := bus.Subscribe(TopicBreakerTripped)
	slow := bus.Subscribe(TopicBreakerTripped)

	// Nothing reads slow yet; publish must not block on it.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			bus.Publish(Event{Topic: TopicBreakerTripped, Payload: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	for i := 0; i < 50; i++ {
		ev := <-fast
		require.Equal(t, i, ev.Payload)
	}
	for i := 0; i < 50; i++ {
		ev := <-slow
		require.Equal(t, i, ev.Payload)
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	tripped := bus.Subscribe(TopicBreakerTripped)
	bus.Publish(Event{Topic: TopicBreakerReset, Payload: "reset"})
	bus.Publish(Event{Topic: TopicBreakerTripped, Payload: "trip"})

	ev := <-tripped
	assert.Equal(t, "trip", ev.Payload)
}

func TestCloseDrainsThenCloses(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(TopicBreakerReset)

	bus.Publish(Event{Topic: TopicBreakerReset, Payload: 1})
	bus.Publish(Event{Topic: TopicBreakerReset, Payload: 2})
	bus.Close()

	var got []interface{}
	for ev := range ch {
		got = append(got, ev.Payload)
	}
	assert.Equal(t, []interface{}{1, 2}, got)
}

func TestPublishStampsTime(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe(TopicOrderApproved)
	bus.Publish(Event{Topic: TopicOrderApproved})
	ev := <-ch
	assert.False(t, ev.At.IsZero())
}
