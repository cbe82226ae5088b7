package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type pingEvent struct{ Stamp }

func (pingEvent) Topic() string { return "ping" }

func TestPublishSyncRunsInOrderAndJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus()
	var order []int
	bus.Subscribe("ping", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 1)
		return errors.New("first")
	}))
	bus.Subscribe("ping", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 2)
		panic("second")
	}))
	bus.Subscribe("other", HandlerFunc(func(context.Context, Event) error {
		t.Fatal("unrelated handler called")
		return nil
	}))

	err := bus.PublishSync(context.Background(), pingEvent{StampAt(time.Now())})
	if err == nil {
		t.Fatal("expected joined error")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestPublishSyncWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.PublishSync(context.Background(), pingEvent{StampAt(time.Now())}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandlerSeesPublishedEvent(t *testing.T) {
	bus := NewInMemoryBus()
	at := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	var got Event
	bus.Subscribe("ping", HandlerFunc(func(_ context.Context, e Event) error {
		got = e
		return nil
	}))

	if err := bus.PublishSync(context.Background(), pingEvent{StampAt(at)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Topic() != "ping" || !got.At().Equal(at) {
		t.Fatalf("unexpected event %#v", got)
	}
}
