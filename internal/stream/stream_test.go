package stream

import (
	"context"
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1 := s.Subscribe(ctx)
	ch2 := s.Subscribe(ctx)

	evt := ElogioEvent{ElogioID: 1, CompanyID: 2, Points: 100, Timestamp: time.Now()}
	s.Publish(evt)

	for i, ch := range []<-chan ElogioEvent{ch1, ch2} {
		select {
		case got := <-ch:
			if got.ElogioID != evt.ElogioID {
				t.Fatalf("subscriber %d: unexpected event %+v", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no event received", i)
		}
	}
}

func TestSubscribeClosesOnContextCancel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx)
	cancel()

	select {
	case _, open := <-ch:
		if open {
			t.Fatal("expected channel closed, got event")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after the last subscriber left must not panic.
	s.Publish(ElogioEvent{ElogioID: 9})
}

func TestPublishDropsWhenSubscriberIsSlow(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	for i := 0; i < 100; i++ {
		s.Publish(ElogioEvent{ElogioID: int64(i)})
	}

	// The buffer holds 16; the rest were dropped without blocking.
	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			if received == 0 || received > 16 {
				t.Fatalf("expected 1..16 buffered events, got %d", received)
			}
			return
		}
	}
}
