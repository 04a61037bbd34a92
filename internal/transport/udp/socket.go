// Package udp implements the datagram transport: one shared UDP socket, a
// cancellable listen session that decodes inbound datagrams into events, and a
// Transport view that encodes outbound messages.
package udp

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/danmuck/edgewire/internal/logging"
	"github.com/danmuck/edgewire/internal/transport"
)

// MaxDatagramSize bounds one receive and one encoded send.
const MaxDatagramSize = 64 * 1024

type sharedConn struct {
	conn *net.UDPConn
	refs atomic.Int64
}

// Socket is one reference-counted handle on a bound UDP socket. Clones share
// the OS socket, which closes when the last handle closes.
type Socket struct {
	shared *sharedConn
	closed atomic.Bool
}

// Bind opens a UDP socket on addr, which must be a socket address.
func Bind(ctx context.Context, addr transport.Addr) (*Socket, error) {
	sa, ok := addr.(transport.SocketAddr)
	if !ok {
		return nil, fmt.Errorf("%w: bind %v", transport.ErrUnsupportedAddress, addr)
	}
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", sa.String())
	if err != nil {
		return nil, fmt.Errorf("%w: bind %s: %w", transport.ErrIO, sa, err)
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		_ = pc.Close()
		return nil, fmt.Errorf("%w: bind %s: unexpected packet conn %T", transport.ErrIO, sa, pc)
	}
	s := &Socket{shared: &sharedConn{conn: conn}}
	s.shared.refs.Store(1)
	logging.Debugf("udp: bound %s", conn.LocalAddr())
	return s, nil
}

// Clone returns a new handle on the same socket. Cloning a closed handle
// yields a closed handle.
func (s *Socket) Clone() *Socket {
	c := &Socket{shared: s.shared}
	if s.closed.Load() {
		c.closed.Store(true)
		return c
	}
	s.shared.refs.Add(1)
	return c
}

// Close releases this handle; the last release closes the OS socket.
func (s *Socket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.shared.refs.Add(-1) > 0 {
		return nil
	}
	logging.Debugf("udp: closing %s", s.shared.conn.LocalAddr())
	if err := s.shared.conn.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", transport.ErrIO, err)
	}
	return nil
}

// Addr reports the bound local address.
func (s *Socket) Addr() transport.SocketAddr {
	sa, err := transport.SocketAddrOf(s.shared.conn.LocalAddr())
	if err != nil {
		panic(fmt.Sprintf("udp: local address not a socket address: %v", err))
	}
	return sa
}

func (s *Socket) conn() (*net.UDPConn, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("%w: %w", transport.ErrIO, net.ErrClosed)
	}
	return s.shared.conn, nil
}
