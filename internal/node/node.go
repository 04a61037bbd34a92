// Package node wires one datagram node: a bound socket, a listen session, a
// dispatcher that answers pings and hands every other message to a handler
// over a submit channel, and a subscriber fan-out.
package node

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/danmuck/edgewire/internal/channel"
	"github.com/danmuck/edgewire/internal/config"
	"github.com/danmuck/edgewire/internal/logging"
	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/responder"
	"github.com/danmuck/edgewire/internal/transport"
	"github.com/danmuck/edgewire/internal/transport/udp"
	"golang.org/x/sync/errgroup"
)

// Handler answers one inbound message. A reply with KindNone is not sent.
type Handler func(ctx context.Context, ev Event) (Message, error)

// Filter selects the kinds a subscriber receives; empty means all.
type Filter []Kind

func (f Filter) match(ev Event) bool {
	return len(f) == 0 || slices.Contains(f, ev.Message.Kind)
}

type Node struct {
	id      string
	peers   []transport.Addr
	listen  udp.ListenConfig
	handler Handler

	sock *udp.Socket
	tr   *udp.Transport[Message, Envelope]

	requests    *channel.SubmitHandle[Event, Message]
	requestSrc  *channel.SubmitSource[Event, Message]
	subscribe   *channel.SubscribeHandle[Filter, Event]
	subscribers *channel.SubscribeSource[Filter, Event]
	fanout      channel.Fanout[Event]

	seq      atomic.Uint64
	received atomic.Uint64
	running  atomic.Bool
	stopped  atomic.Bool
	started  time.Time
}

// New binds the node socket. A nil handler answers nothing.
func New(ctx context.Context, cfg config.NodeConfig, handler Handler) (*Node, error) {
	if err := config.ValidateNodeConfig(cfg); err != nil {
		return nil, err
	}
	bind, err := transport.ParseAddr(cfg.Bind)
	if err != nil {
		return nil, err
	}
	peers, err := transport.ParseAddrs(cfg.Peers)
	if err != nil {
		return nil, err
	}
	policy, err := udp.ParseDecodePolicy(cfg.DecodePolicy)
	if err != nil {
		return nil, err
	}

	sock, err := udp.Bind(ctx, bind)
	if err != nil {
		return nil, err
	}
	local := sock.Addr().String()
	n := &Node{
		id:      cfg.ID,
		peers:   peers,
		listen:  udp.ListenConfig{DecodePolicy: policy},
		handler: handler,
		sock:    sock,
		tr:      udp.NewTransport(sock, codec.Binary[Envelope](), envelopeOf),
		started: time.Now(),
	}
	n.requests, n.requestSrc = channel.NewSubmitChannel[Event, Message]()
	n.subscribe, n.subscribers = channel.NewSubscribeChannel[Filter, Event]()
	logging.Infof("node: %s bound %s peers=%d decode_policy=%s", n.id, local, len(peers), policy)
	return n, nil
}

func (n *Node) ID() string              { return n.id }
func (n *Node) Addr() transport.Addr    { return n.tr.Addr() }
func (n *Node) Peers() []transport.Addr { return slices.Clone(n.peers) }

// Running reports whether Run has started and not yet returned.
func (n *Node) Running() bool { return n.running.Load() && !n.stopped.Load() }

// Received reports how many inbound messages the dispatcher has handled.
func (n *Node) Received() uint64 { return n.received.Load() }

// Subscribers reports the live subscriber count.
func (n *Node) Subscribers() int { return n.fanout.Len() }

// Subscribe returns a stream of inbound events matching filter. The stream
// closes when the node stops.
func (n *Node) Subscribe(filter ...Kind) (*channel.EventSource[Event], error) {
	return channel.Subscribe(n.subscribe, Filter(filter))
}

// Send stamps msg with the next sequence number and sends it to dst.
func (n *Node) Send(ctx context.Context, dst transport.Addr, msg Message) error {
	msg.Seq = n.seq.Add(1)
	return n.tr.SendTo(ctx, dst, msg)
}

// Broadcast sends msg to every configured peer, encoding it once.
func (n *Node) Broadcast(ctx context.Context, msg Message) error {
	msg.Seq = n.seq.Add(1)
	return n.tr.SendToAll(ctx, slices.Values(n.peers), msg)
}

// Run drives the node until ctx is done (nil) or a loop fails. It may be
// called once.
func (n *Node) Run(ctx context.Context) error {
	if !n.running.CompareAndSwap(false, true) {
		return errors.New("node: already running")
	}
	defer n.stopped.Store(true)
	defer n.shutdown()

	g, gctx := errgroup.WithContext(ctx)
	inbound, events := channel.NewEventChannel[Event]()

	g.Go(func() error {
		defer inbound.Close()
		return udp.ListenSessionFrom(gctx, n.sock, codec.Binary[Envelope](), eventOf, inbound, n.listen)
	})
	g.Go(func() error {
		defer n.fanout.Close()
		return n.dispatch(gctx, events)
	})
	g.Go(func() error {
		return n.register(gctx)
	})
	g.Go(func() error {
		var err error
		if n.handler == nil {
			err = responder.Null(gctx, n.requestSrc)
		} else {
			err = channel.ServeSubmissions(gctx, n.requestSrc, n.handler)
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Errf("node: %s stopped: %v", n.id, err)
		return fmt.Errorf("node %s: %w", n.id, err)
	}
	logging.Infof("node: %s stopped", n.id)
	return nil
}

// Close releases the node socket.
func (n *Node) Close() error {
	trErr := n.tr.Close()
	return errors.Join(trErr, n.sock.Close())
}

// shutdown releases every handle. Submissions and subscriptions still queued
// are settled so no caller waits on a stream that never closes.
func (n *Node) shutdown() {
	drain, cancel := context.WithCancel(context.Background())
	cancel()

	n.requests.Close()
	for {
		sub, err := n.requestSrc.Next(drain)
		if err != nil {
			break
		}
		sub.Reply.Abandon()
	}
	n.requestSrc.Close()

	n.subscribe.Close()
	for {
		sub, err := n.subscribers.Next(drain)
		if err != nil {
			break
		}
		sub.Events.Close()
	}
	n.subscribers.Close()
	n.fanout.Close()
}

func (n *Node) dispatch(ctx context.Context, events *channel.EventSource[Event]) error {
	for {
		ev, ok := events.OptionNext(ctx)
		if !ok {
			return nil
		}
		n.received.Add(1)
		n.fanout.Publish(ev)
		if err := n.handle(ctx, ev); err != nil {
			return err
		}
	}
}

func (n *Node) handle(ctx context.Context, ev Event) error {
	switch ev.Message.Kind {
	case KindPing:
		n.reply(ctx, ev, Message{Kind: KindPong, Body: ev.Message.Body})
		return nil
	case KindPong:
		return nil
	}
	reply, err := channel.Submit(ctx, n.requests, ev)
	switch {
	case errors.Is(err, channel.ErrRequestFailed):
		logging.Warnf("node: %s handler dropped seq=%d from=%s", n.id, ev.Message.Seq, ev.From)
		return nil
	case err != nil:
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if reply.Kind != KindNone {
		n.reply(ctx, ev, reply)
	}
	return nil
}

// reply answers ev at its datagram source.
func (n *Node) reply(ctx context.Context, ev Event, msg Message) {
	msg.Seq = ev.Message.Seq
	if err := n.tr.SendTo(ctx, ev.From, msg); err != nil {
		logging.Warnf("node: %s reply to %s failed: %v", n.id, ev.From, err)
	}
}

func (n *Node) register(ctx context.Context) error {
	for {
		sub, err := n.subscribers.Next(ctx)
		if err != nil {
			return nil
		}
		filter := sub.Request
		n.fanout.Add(sub.Events, filter.match)
		logging.Debugf("node: %s subscriber added filter=%v", n.id, filter)
	}
}
