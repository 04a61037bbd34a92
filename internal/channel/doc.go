// Package channel owns the in-process message-passing primitives.
//
// Ownership boundary:
// - event channel (many senders, one source, unbounded)
// - one-shot promise
// - submit (request/response) and subscribe (registration/stream) combinators
//
// Sender handles are safe for concurrent use and are cloned per owner. A source is
// driven by exactly one goroutine. Go has no drop glue, so every handle is released
// with an explicit Close (or Resolve/Abandon for promise senders).
package channel
