package transport

import (
	"fmt"
	"net"
	"net/netip"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
)

// Addr identifies a destination. The variant set is closed: SocketAddr and MultiAddr.
type Addr interface {
	fmt.Stringer
	isAddr()
}

// SocketAddr is a host:port network socket address.
type SocketAddr struct {
	ap netip.AddrPort
}

// MultiAddr is a self-describing multiaddr. No transport here routes it.
type MultiAddr struct {
	m ma.Multiaddr
}

func (SocketAddr) isAddr() {}
func (MultiAddr) isAddr()  {}

// NewSocketAddr wraps ap, unmapping IPv4-in-IPv6 forms.
func NewSocketAddr(ap netip.AddrPort) SocketAddr {
	return SocketAddr{ap: netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())}
}

// SocketAddrOf converts a net.Addr reported by a socket.
func SocketAddrOf(a net.Addr) (SocketAddr, error) {
	switch v := a.(type) {
	case *net.UDPAddr:
		return NewSocketAddr(v.AddrPort()), nil
	case *net.TCPAddr:
		return NewSocketAddr(v.AddrPort()), nil
	}
	ap, err := netip.ParseAddrPort(a.String())
	if err != nil {
		return SocketAddr{}, fmt.Errorf("%w: %s", ErrUnsupportedAddress, a)
	}
	return NewSocketAddr(ap), nil
}

func (a SocketAddr) AddrPort() netip.AddrPort { return a.ap }
func (a SocketAddr) String() string           { return a.ap.String() }

func NewMultiAddr(m ma.Multiaddr) MultiAddr { return MultiAddr{m: m} }

func (a MultiAddr) String() string { return a.m.String() }

// ParseAddr parses "/ip4/..." style strings as multiaddrs and everything else as
// host:port socket addresses. Host names are not resolved.
func ParseAddr(raw string) (Addr, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty address", ErrUnsupportedAddress)
	}
	if strings.HasPrefix(raw, "/") {
		m, err := ma.NewMultiaddr(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedAddress, raw, err)
		}
		return NewMultiAddr(m), nil
	}
	ap, err := netip.ParseAddrPort(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedAddress, raw, err)
	}
	return NewSocketAddr(ap), nil
}

// ParseAddrs parses every entry of raw, stopping at the first failure.
func ParseAddrs(raw []string) ([]Addr, error) {
	out := make([]Addr, 0, len(raw))
	for i, r := range raw {
		a, err := ParseAddr(r)
		if err != nil {
			return nil, fmt.Errorf("addr[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}
