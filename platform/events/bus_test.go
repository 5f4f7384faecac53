package events

import (
	"context"
	"testing"
	"time"

	"realia_backend/platform/logger"
)

type testEvent struct{ BaseEvent }

func (testEvent) EventName() string { return "test.event" }

func TestPublishSurvivesCallerCancel(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	handlerErr := make(chan error, 1)
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, _ Event) error {
		// Give the publisher time to cancel before we look at the context.
		time.Sleep(20 * time.Millisecond)
		handlerErr <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent()})
	cancel()

	select {
	case err := <-handlerErr:
		if err != nil {
			t.Fatalf("handler context canceled with publisher: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}

func TestPublishSyncReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	calls := 0
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		calls++
		return context.DeadlineExceeded
	}))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		calls++
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want both handlers to run", calls)
	}
}
