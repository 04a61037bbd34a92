package channel

import (
	"context"
	"sync/atomic"

	"github.com/danmuck/edgewire/internal/logging"
)

type promiseState[T any] struct {
	value     chan T
	abandoned chan struct{}
	consumed  atomic.Bool
	dropped   atomic.Bool
}

// PromiseSender delivers at most one value.
type PromiseSender[T any] struct {
	p *promiseState[T]
}

// PromiseSource receives the value delivered by its sender.
type PromiseSource[T any] struct {
	p *promiseState[T]
}

func NewPromise[T any]() (*PromiseSender[T], *PromiseSource[T]) {
	p := &promiseState[T]{
		value:     make(chan T, 1),
		abandoned: make(chan struct{}),
	}
	return &PromiseSender[T]{p: p}, &PromiseSource[T]{p: p}
}

// Resolve consumes the sender and delivers value. A closed source is logged,
// not reported: the resolving side has done its part either way.
func (s *PromiseSender[T]) Resolve(value T) {
	if !s.p.consumed.CompareAndSwap(false, true) {
		logging.Warnf("channel: promise already consumed, dropping value")
		return
	}
	if s.p.dropped.Load() {
		logging.Warnf("channel: reply channel closed before submitted task finished")
		return
	}
	s.p.value <- value
}

// Abandon consumes the sender without a value; the source observes
// ErrRequestFailed. Abandon after Resolve is a no-op, so it can be deferred.
func (s *PromiseSender[T]) Abandon() {
	if !s.p.consumed.CompareAndSwap(false, true) {
		return
	}
	close(s.p.abandoned)
}

// Await returns the resolved value. It must be called at most once.
func (r *PromiseSource[T]) Await(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-r.p.value:
		return v, nil
	case <-r.p.abandoned:
		return zero, ErrRequestFailed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close discards the source.
func (r *PromiseSource[T]) Close() {
	r.p.dropped.Store(true)
}
