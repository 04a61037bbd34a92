package codec

import (
	"fmt"

	cbor "github.com/fxamacker/cbor/v2"
)

type cborCodec[N any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// CBOR returns a core-deterministic CBOR codec with strict decoding: unknown
// struct fields, duplicate map keys and trailing bytes are errors.
func CBOR[N any]() (Codec[N], error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("codec: cbor enc mode: %w", err)
	}
	dm, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("codec: cbor dec mode: %w", err)
	}
	return cborCodec[N]{enc: em, dec: dm}, nil
}

// MustCBOR is CBOR for package-level codecs; the options are static.
func MustCBOR[N any]() Codec[N] {
	c, err := CBOR[N]()
	if err != nil {
		panic(err)
	}
	return c
}

func (c cborCodec[N]) Encode(msg N) ([]byte, error) {
	b, err := c.enc.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("codec: cbor encode: %w", err)
	}
	return b, nil
}

func (c cborCodec[N]) Decode(data []byte) (N, error) {
	var msg N
	if err := c.dec.Unmarshal(data, &msg); err != nil {
		var zero N
		return zero, fmt.Errorf("codec: cbor decode: %w", err)
	}
	return msg, nil
}
