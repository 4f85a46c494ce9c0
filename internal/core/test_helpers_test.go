package core

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/ramadan-assistant/internal/prayer"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed while waiting for kind %v", kind)
			}
			if ev != nil && ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

func noEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(wait):
	}
}

type fetcherFunc func(ctx context.Context, date time.Time) (prayer.Timings, error)

func (f fetcherFunc) Fetch(ctx context.Context, date time.Time) (prayer.Timings, error) {
	return f(ctx, date)
}

func startHub(t *testing.T, opts Options) (*Hub, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(opts)
	go hub.Run(ctx)
	return hub, ctx
}
