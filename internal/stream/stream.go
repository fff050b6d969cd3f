package stream

import (
	"context"
	"sync"
	"time"
)

// ElogioEvent describes a recognition published to the live wall feed.
type ElogioEvent struct {
	ElogioID  int64     `json:"elogio_id"`
	CompanyID int64     `json:"company_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Category  string    `json:"category"`
	Points    int64     `json:"points"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Stream fans wall events out to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan ElogioEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan ElogioEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan ElogioEvent {
	ch := make(chan ElogioEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish delivers the event to every subscriber. Slow subscribers are
// skipped rather than blocked on.
func (s *Stream) Publish(evt ElogioEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
