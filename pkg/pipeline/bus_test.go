package pipeline

import (
	"testing"
	"time"
)

func TestEventBusBasicPublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)

	bus.Subscribe(EventError, ch)

	evt := newEvent(EventError, "session-1")
	evt.Error = &ErrorPayload{Stage: "vad", Message: "test error"}
	bus.Publish(evt)

	received := <-ch
	if received.Type != EventError {
		t.Errorf("Expected event type %v, got %v", EventError, received.Type)
	}
	if received.Error.Message != "test error" {
		t.Errorf("Expected message 'test error', got %v", received.Error.Message)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)

	bus.Subscribe(EventVAD, ch)
	bus.Unsubscribe(EventVAD, ch)

	bus.Publish(newEvent(EventVAD, "session-1"))

	select {
	case <-ch:
		t.Error("Should not receive event after unsubscribe")
	case <-time.After(100 * time.Millisecond):
		// Test passed - no event received
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	ch1 := make(chan Event, 1)
	ch2 := make(chan Event, 1)

	bus.Subscribe(EventMetrics, ch1)
	bus.Subscribe(EventMetrics, ch2)

	bus.Publish(newEvent(EventMetrics, "session-1"))

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Errorf("Subscriber %d did not receive the event", i+1)
		}
	}
}

func TestEventBusTypeIsolation(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)

	bus.Subscribe(EventSynthesis, ch)
	bus.Publish(newEvent(EventTranslation, "session-1"))

	select {
	case <-ch:
		t.Error("Should not receive events of other types")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventBusFullSubscriberDoesNotBlock(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)

	bus.Subscribe(EventVAD, ch)
	bus.Publish(newEvent(EventVAD, "a"))

	// The second publish must drop rather than block.
	done := make(chan struct{})
	go func() {
		bus.Publish(newEvent(EventVAD, "b"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
}
