// Package codec converts wire messages to and from datagram bytes.
package codec

// Codec converts wire messages of type N to and from bytes. Both endpoints
// must use the same codec; Encode must be deterministic.
type Codec[N any] interface {
	Encode(msg N) ([]byte, error)
	Decode(data []byte) (N, error)
}
