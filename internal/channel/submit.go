package channel

import (
	"context"
	"errors"

	"github.com/danmuck/edgewire/internal/logging"
	"github.com/danmuck/edgewire/internal/observability"
)

// Submission is one operation paired with the promise its server must settle.
type Submission[T, U any] struct {
	Op    T
	Reply *PromiseSender[U]
}

type (
	SubmitHandle[T, U any] = EventSender[Submission[T, U]]
	SubmitSource[T, U any] = EventSource[Submission[T, U]]
)

func NewSubmitChannel[T, U any]() (*SubmitHandle[T, U], *SubmitSource[T, U]) {
	return NewEventChannel[Submission[T, U]]()
}

// Submit sends op to the server behind h and waits for exactly one reply.
// There is no retry; resubmit with a fresh op.
func Submit[T, U any](ctx context.Context, h *SubmitHandle[T, U], op T) (U, error) {
	var zero U
	reply, promise := NewPromise[U]()
	if err := h.Send(Submission[T, U]{Op: op, Reply: reply}); err != nil {
		observability.RecordSubmit("undeliverable")
		return zero, err
	}
	v, err := promise.Await(ctx)
	if err != nil {
		promise.Close()
		observability.RecordSubmit(submitOutcome(err))
		return zero, err
	}
	observability.RecordSubmit("ok")
	return v, nil
}

func submitOutcome(err error) string {
	switch {
	case errors.Is(err, ErrRequestFailed):
		return "abandoned"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

// ServeSubmissions settles every submission read from src with handle. A
// handler error or panic abandons that submission and the loop continues.
// It returns nil once every submit handle is released.
func ServeSubmissions[T, U any](ctx context.Context, src *SubmitSource[T, U], handle func(context.Context, T) (U, error)) error {
	for {
		sub, err := src.Next(ctx)
		if errors.Is(err, ErrChannelClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		serveSubmission(ctx, sub, handle)
	}
}

func serveSubmission[T, U any](ctx context.Context, sub Submission[T, U], handle func(context.Context, T) (U, error)) {
	defer sub.Reply.Abandon()
	defer func() {
		if r := recover(); r != nil {
			logging.Errf("channel: submission handler panic: %v", r)
		}
	}()
	v, err := handle(ctx, sub.Op)
	if err != nil {
		logging.Warnf("channel: submission handler failed: %v", err)
		return
	}
	sub.Reply.Resolve(v)
}
