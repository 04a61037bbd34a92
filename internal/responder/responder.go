// Package responder holds stand-in request handlers for submit channels.
package responder

import (
	"context"

	"github.com/danmuck/edgewire/internal/channel"
)

// Null answers every submission on src with the zero value of U until every
// submit handle is released.
func Null[T, U any](ctx context.Context, src *channel.SubmitSource[T, U]) error {
	var zero U
	return Fixed(ctx, src, zero)
}

// Fixed answers every submission on src with value.
func Fixed[T, U any](ctx context.Context, src *channel.SubmitSource[T, U], value U) error {
	return channel.ServeSubmissions(ctx, src, func(context.Context, T) (U, error) {
		return value, nil
	})
}
