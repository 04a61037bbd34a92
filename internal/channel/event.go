package channel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

type eventQueue[M any] struct {
	mu      sync.Mutex
	items   []M
	senders int
	dropped bool
	// notify holds at most one pending wakeup for the single source.
	notify chan struct{}
}

func (q *eventQueue[M]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *eventQueue[M]) pop() (msg M, ok bool, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) > 0 {
		msg = q.items[0]
		var zero M
		q.items[0] = zero
		q.items = q.items[1:]
		if len(q.items) == 0 {
			q.items = nil
		}
		return msg, true, false
	}
	return msg, false, q.senders == 0 || q.dropped
}

// EventSender is one producer handle of an event channel.
type EventSender[M any] struct {
	q      *eventQueue[M]
	closed atomic.Bool
}

// EventSource is the single consumer handle of an event channel.
type EventSource[M any] struct {
	q *eventQueue[M]
}

// NewEventChannel returns an unbounded multi-producer single-consumer channel.
func NewEventChannel[M any]() (*EventSender[M], *EventSource[M]) {
	q := &eventQueue[M]{
		senders: 1,
		notify:  make(chan struct{}, 1),
	}
	return &EventSender[M]{q: q}, &EventSource[M]{q: q}
}

// Send enqueues msg without blocking. It fails with ErrChannelClosed once the
// source is closed or this handle has been released.
func (s *EventSender[M]) Send(msg M) error {
	if s.closed.Load() {
		return fmt.Errorf("%w: sender released", ErrChannelClosed)
	}
	q := s.q
	q.mu.Lock()
	if q.dropped {
		q.mu.Unlock()
		return ErrChannelClosed
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()
	q.wake()
	return nil
}

// Clone returns a new live handle on the same channel. Cloning a released
// handle yields a released handle.
func (s *EventSender[M]) Clone() *EventSender[M] {
	c := &EventSender[M]{q: s.q}
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	if s.closed.Load() {
		c.closed.Store(true)
		return c
	}
	s.q.senders++
	return c
}

// Close releases this handle. The channel closes when the last handle is released.
func (s *EventSender[M]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	q := s.q
	q.mu.Lock()
	q.senders--
	last := q.senders == 0
	q.mu.Unlock()
	if last {
		q.wake()
	}
}

// Next blocks until a message is available. Queued messages are drained before
// ErrChannelClosed is reported.
func (r *EventSource[M]) Next(ctx context.Context) (M, error) {
	for {
		msg, ok, closed := r.q.pop()
		if ok {
			return msg, nil
		}
		var zero M
		if closed {
			return zero, ErrChannelClosed
		}
		select {
		case <-r.q.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// OptionNext is Next for loops that treat closure as normal termination.
// ok is false once the channel is closed and drained, or ctx is done.
func (r *EventSource[M]) OptionNext(ctx context.Context) (msg M, ok bool) {
	msg, err := r.Next(ctx)
	return msg, err == nil
}

// Len reports the number of queued messages.
func (r *EventSource[M]) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.items)
}

// Close drops the source. Pending messages are discarded and later sends fail.
func (r *EventSource[M]) Close() {
	r.q.mu.Lock()
	r.q.dropped = true
	r.q.items = nil
	r.q.mu.Unlock()
}
