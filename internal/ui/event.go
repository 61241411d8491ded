package ui

import (
	"context"
	log "log/slog"
	"time"
)

type Kind string

const (
	KindListening     Kind = "listening"
	KindListeningDone Kind = "listening_done"
	KindUser          Kind = "user"
	KindBot           Kind = "bot"
	KindDisplay       Kind = "display"
	KindSystem        Kind = "system"
)

type Event struct {
	Session string    `json:"session"`
	Kind    Kind      `json:"kind"`
	Text    string    `json:"text,omitempty"`
	At      time.Time `json:"at"`
}

type Sink interface {
	Handle(Event) error
}

// Queue carries display updates from the dispatch loop to whatever owns
// the display. Post never blocks: when the buffer is full the event is
// dropped.
type Queue struct {
	events chan Event
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{events: make(chan Event, size)}
}

func (q *Queue) Post(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	select {
	case q.events <- ev:
	default:
		log.Warn("UI queue full, dropping event", "kind", ev.Kind)
	}
}

func (q *Queue) Events() <-chan Event {
	return q.events
}

// Run drains the queue on the calling goroutine until ctx is done.
func (q *Queue) Run(ctx context.Context, sinks ...Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-q.events:
			for _, s := range sinks {
				if err := s.Handle(ev); err != nil {
					log.Debug("UI sink failed", "kind", ev.Kind, "err", err)
				}
			}
		}
	}
}
