package codec

import (
	"encoding"
	"fmt"
)

type binaryCodec[N encoding.BinaryMarshaler, P interface {
	*N
	encoding.BinaryUnmarshaler
}] struct{}

// Binary delegates to the message's own MarshalBinary/UnmarshalBinary.
func Binary[N encoding.BinaryMarshaler, P interface {
	*N
	encoding.BinaryUnmarshaler
}]() Codec[N] {
	return binaryCodec[N, P]{}
}

func (binaryCodec[N, P]) Encode(msg N) ([]byte, error) {
	b, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("codec: binary encode: %w", err)
	}
	return b, nil
}

func (binaryCodec[N, P]) Decode(data []byte) (N, error) {
	var msg N
	if err := P(&msg).UnmarshalBinary(data); err != nil {
		var zero N
		return zero, fmt.Errorf("codec: binary decode: %w", err)
	}
	return msg, nil
}
