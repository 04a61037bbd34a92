package udp

import (
	"context"
	"fmt"
	"iter"
	"net/netip"

	"github.com/danmuck/edgewire/internal/observability"
	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/transport"
)

// Transport sends application messages M as wire messages N over a shared socket.
type Transport[M, N any] struct {
	sock  *Socket
	codec codec.Codec[N]
	into  func(M) N
}

var _ transport.Transport[struct{}] = (*Transport[struct{}, struct{}])(nil)

// NewTransport returns a transport over a clone of sock; close both independently.
func NewTransport[M, N any](sock *Socket, c codec.Codec[N], into func(M) N) *Transport[M, N] {
	return &Transport[M, N]{sock: sock.Clone(), codec: c, into: into}
}

// Clone returns a transport sharing the same socket.
func (t *Transport[M, N]) Clone() *Transport[M, N] {
	return &Transport[M, N]{sock: t.sock.Clone(), codec: t.codec, into: t.into}
}

// Close releases this transport's socket handle.
func (t *Transport[M, N]) Close() error {
	return t.sock.Close()
}

func (t *Transport[M, N]) Addr() transport.Addr {
	return t.sock.Addr()
}

func (t *Transport[M, N]) SendTo(ctx context.Context, dst transport.Addr, msg M) error {
	ap, err := socketDest(dst)
	if err != nil {
		return err
	}
	buf, err := t.encode(msg)
	if err != nil {
		return err
	}
	return t.write(ctx, buf, ap)
}

func (t *Transport[M, N]) SendToAll(ctx context.Context, dsts iter.Seq[transport.Addr], msg M) error {
	buf, err := t.encode(msg)
	if err != nil {
		return err
	}
	for dst := range dsts {
		ap, err := socketDest(dst)
		if err != nil {
			return err
		}
		if err := t.write(ctx, buf, ap); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport[M, N]) encode(msg M) ([]byte, error) {
	buf, err := t.codec.Encode(t.into(msg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", transport.ErrCodec, err)
	}
	if len(buf) > MaxDatagramSize {
		return nil, fmt.Errorf("%w: encoded message is %d bytes, limit %d", transport.ErrCodec, len(buf), MaxDatagramSize)
	}
	return buf, nil
}

func (t *Transport[M, N]) write(ctx context.Context, buf []byte, dst netip.AddrPort) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := t.sock.conn()
	if err != nil {
		return err
	}
	_, err = conn.WriteToUDPAddrPort(buf, dst)
	observability.RecordDatagramSent(len(buf), err)
	if err != nil {
		return fmt.Errorf("%w: send to %s: %w", transport.ErrIO, dst, err)
	}
	return nil
}

func socketDest(dst transport.Addr) (netip.AddrPort, error) {
	sa, ok := dst.(transport.SocketAddr)
	if !ok {
		return netip.AddrPort{}, fmt.Errorf("%w: destination %v", transport.ErrUnsupportedAddress, dst)
	}
	return sa.AddrPort(), nil
}
