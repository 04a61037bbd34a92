package transport

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

func TestParseAddrSocket(t *testing.T) {
	testlog.Start(t)
	a, err := ParseAddr(" 127.0.0.1:9000 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sa, ok := a.(SocketAddr)
	if !ok {
		t.Fatalf("expected SocketAddr, got %T", a)
	}
	if sa.String() != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr: %s", sa)
	}
}

func TestParseAddrMultiaddr(t *testing.T) {
	testlog.Start(t)
	a, err := ParseAddr("/ip4/10.0.0.1/udp/4001")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := a.(MultiAddr); !ok {
		t.Fatalf("expected MultiAddr, got %T", a)
	}
	if a.String() != "/ip4/10.0.0.1/udp/4001" {
		t.Fatalf("unexpected addr: %s", a)
	}
}

func TestParseAddrRejectsGarbage(t *testing.T) {
	testlog.Start(t)
	for _, raw := range []string{"", "localhost", "/notaproto/1"} {
		if _, err := ParseAddr(raw); !errors.Is(err, ErrUnsupportedAddress) {
			t.Fatalf("ParseAddr(%q) expected ErrUnsupportedAddress, got %v", raw, err)
		}
	}
	if _, err := ParseAddrs([]string{"127.0.0.1:1", "nope"}); !errors.Is(err, ErrUnsupportedAddress) {
		t.Fatalf("ParseAddrs expected ErrUnsupportedAddress, got %v", err)
	}
}

func TestSocketAddrOfUnmapsIPv4(t *testing.T) {
	testlog.Start(t)
	udp := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4242}
	sa, err := SocketAddrOf(udp)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	want := netip.MustParseAddrPort("127.0.0.1:4242")
	if sa.AddrPort() != want || !sa.AddrPort().Addr().Is4() {
		t.Fatalf("got=%v want=%v", sa.AddrPort(), want)
	}
}
