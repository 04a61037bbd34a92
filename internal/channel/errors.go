package channel

import "errors"

var (
	// ErrChannelClosed reports that the counterpart half of a channel is gone.
	ErrChannelClosed = errors.New("channel: closed")
	// ErrRequestFailed reports that a submitted operation's promise was abandoned.
	ErrRequestFailed = errors.New("channel: request failed")
)
