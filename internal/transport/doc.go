// Package transport owns the network-facing send capability.
//
// Ownership boundary:
// - Addr variant set (socket, multiaddr)
// - Transport capability interface
// - transport error taxonomy
//
// Concrete transports live in subpackages (udp).
package transport
