package udp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/edgewire/internal/channel"
	"github.com/danmuck/edgewire/internal/logging"
	"github.com/danmuck/edgewire/internal/observability"
	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/transport"
)

// DecodePolicy selects what a listen session does with a malformed datagram.
type DecodePolicy int

const (
	// DecodeFailFast ends the session on the first malformed datagram.
	DecodeFailFast DecodePolicy = iota
	// DecodeSkip logs and drops malformed datagrams.
	DecodeSkip
)

func (p DecodePolicy) String() string {
	switch p {
	case DecodeFailFast:
		return "fail_fast"
	case DecodeSkip:
		return "skip"
	default:
		return fmt.Sprintf("DecodePolicy(%d)", int(p))
	}
}

func ParseDecodePolicy(raw string) (DecodePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "fail_fast", "fail-fast":
		return DecodeFailFast, nil
	case "skip":
		return DecodeSkip, nil
	default:
		return DecodeFailFast, fmt.Errorf("udp: unknown decode policy %q", raw)
	}
}

// ListenConfig tunes a listen session. The zero value is fail-fast with a
// MaxDatagramSize buffer.
type ListenConfig struct {
	DecodePolicy DecodePolicy
	BufferSize   int
}

// aLongTimeAgo is a read deadline that unblocks a pending read immediately.
var aLongTimeAgo = time.Unix(1, 0)

// ListenSession reads datagrams from sock until ctx is done (nil) or a
// receive, decode or publish fails (error). Each datagram is decoded with c,
// converted with into and sent on events. A datagram read before cancellation
// is observed is still published; no read starts after it.
//
// Only one session should run per socket: concurrent sessions split inbound
// datagrams between them arbitrarily.
func ListenSession[N, E any](
	ctx context.Context,
	sock *Socket,
	c codec.Codec[N],
	into func(N) E,
	events *channel.EventSender[E],
	cfg ListenConfig,
) error {
	return ListenSessionFrom(ctx, sock, c, func(msg N, _ transport.SocketAddr) E { return into(msg) }, events, cfg)
}

// ListenSessionFrom is ListenSession with the datagram source passed to into.
func ListenSessionFrom[N, E any](
	ctx context.Context,
	sock *Socket,
	c codec.Codec[N],
	into func(N, transport.SocketAddr) E,
	events *channel.EventSender[E],
	cfg ListenConfig,
) (err error) {
	conn, err := sock.conn()
	if err != nil {
		return err
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = MaxDatagramSize
	}
	buf := make([]byte, size)

	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return fmt.Errorf("%w: reset read deadline: %w", transport.ErrIO, err)
	}
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = conn.SetReadDeadline(aLongTimeAgo)
	})
	defer func() {
		// A late callback must not clobber the next reader's deadline.
		if !stop() {
			<-fired
		}
	}()

	local := conn.LocalAddr()
	logging.Debugf("udp: listen session start local=%s policy=%s", local, cfg.DecodePolicy)
	defer func() {
		state := "stopped"
		if err != nil {
			state = "failed"
			logging.Errf("udp: listen session failed local=%s err=%v", local, err)
		} else {
			logging.Debugf("udp: listen session stopped local=%s", local)
		}
		observability.RecordListenSession(state)
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		n, remote, rerr := conn.ReadFromUDPAddrPort(buf)
		if rerr != nil {
			if ctx.Err() != nil && errors.Is(rerr, os.ErrDeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("%w: recv: %w", transport.ErrIO, rerr)
		}

		msg, derr := c.Decode(buf[:n])
		if derr != nil {
			if cfg.DecodePolicy == DecodeSkip {
				observability.RecordDatagramReceived(n, "skipped")
				logging.Warnf("udp: dropping malformed datagram from=%s bytes=%d err=%v", remote, n, derr)
				continue
			}
			observability.RecordDatagramReceived(n, "malformed")
			return fmt.Errorf("%w: datagram from %s: %w", transport.ErrCodec, remote, derr)
		}
		if perr := events.Send(into(msg, transport.NewSocketAddr(remote))); perr != nil {
			observability.RecordDatagramReceived(n, "undeliverable")
			return fmt.Errorf("udp: publish event: %w", perr)
		}
		observability.RecordDatagramReceived(n, "ok")
	}
}
