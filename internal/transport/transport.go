package transport

import (
	"context"
	"iter"
)

// Transport sends application messages of type M to addresses. Implementations
// encode each message once per call and never mutate shared state on send.
type Transport[M any] interface {
	// Addr reports the local address.
	Addr() Addr
	// SendTo encodes msg and sends it to dst.
	SendTo(ctx context.Context, dst Addr, msg M) error
	// SendToAll encodes msg once and sends the same bytes to every destination
	// in order. It stops at the first failure; earlier sends are not undone.
	SendToAll(ctx context.Context, dsts iter.Seq[Addr], msg M) error
}

// Identity is the conversion for applications whose message type is its own wire type.
func Identity[T any](v T) T { return v }
