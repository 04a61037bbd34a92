package channel

import "sync"

// Subscription is one registration paired with the stream its server feeds.
type Subscription[T, U any] struct {
	Request T
	Events  *EventSender[U]
}

type (
	SubscribeHandle[T, U any] = EventSender[Subscription[T, U]]
	SubscribeSource[T, U any] = EventSource[Subscription[T, U]]
)

func NewSubscribeChannel[T, U any]() (*SubscribeHandle[T, U], *SubscribeSource[T, U]) {
	return NewEventChannel[Subscription[T, U]]()
}

// Subscribe registers req and returns the stream right away; no acknowledgment
// is awaited. The stream closes when the server releases its sender.
func Subscribe[T, U any](h *SubscribeHandle[T, U], req T) (*EventSource[U], error) {
	events, stream := NewEventChannel[U]()
	if err := h.Send(Subscription[T, U]{Request: req, Events: events}); err != nil {
		events.Close()
		stream.Close()
		return nil, err
	}
	return stream, nil
}

// Fanout is a server-side set of subscriber streams. Subscribers whose Send
// fails are released and forgotten.
type Fanout[U any] struct {
	mu   sync.Mutex
	subs []fanoutSub[U]
}

type fanoutSub[U any] struct {
	events *EventSender[U]
	match  func(U) bool
}

// Add registers events. A nil match receives every published value.
func (f *Fanout[U]) Add(events *EventSender[U], match func(U) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fanoutSub[U]{events: events, match: match})
}

// Publish sends v to every live matching subscriber and returns how many
// subscribers remain.
func (f *Fanout[U]) Publish(v U) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	live := f.subs[:0]
	for _, s := range f.subs {
		if s.match != nil && !s.match(v) {
			live = append(live, s)
			continue
		}
		if err := s.events.Send(v); err != nil {
			s.events.Close()
			continue
		}
		live = append(live, s)
	}
	clear(f.subs[len(live):])
	f.subs = live
	return len(live)
}

func (f *Fanout[U]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close releases every subscriber; their streams observe closure.
func (f *Fanout[U]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		s.events.Close()
	}
	f.subs = nil
}
