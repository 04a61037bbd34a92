package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/edgewire/internal/protocol/tlv"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

type vote struct {
	Term      uint64            `cbor:"1,keyasint"`
	Candidate string            `cbor:"2,keyasint"`
	Tags      map[string]uint32 `cbor:"3,keyasint,omitempty"`
}

func TestCBORRoundTrip(t *testing.T) {
	testlog.Start(t)
	c := MustCBOR[vote]()
	in := vote{Term: 7, Candidate: "node-b", Tags: map[string]uint32{"z": 1, "a": 2}}
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCBOREncodingIsDeterministic(t *testing.T) {
	testlog.Start(t)
	c := MustCBOR[vote]()
	tags := make(map[string]uint32)
	for i, k := range []string{"q", "w", "e", "r", "t", "y"} {
		tags[k] = uint32(i)
	}
	first, err := c.Encode(vote{Term: 1, Tags: tags})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for range 20 {
		again, _ := c.Encode(vote{Term: 1, Tags: tags})
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding not deterministic")
		}
	}
}

func TestCBORRejectsMalformed(t *testing.T) {
	testlog.Start(t)
	c := MustCBOR[vote]()
	good, _ := c.Encode(vote{Term: 1})
	cases := map[string][]byte{
		"empty":    nil,
		"break":    {0xff},
		"trailing": append(append([]byte{}, good...), 0x00),
		"unknown":  {0xa1, 0x09, 0x01}, // {9: 1}
	}
	for name, data := range cases {
		if _, err := c.Decode(data); err == nil {
			t.Fatalf("%s: expected decode error", name)
		}
	}
}

type ping struct {
	Seq  uint64
	From string
}

func (p ping) MarshalBinary() ([]byte, error) {
	return tlv.EncodeFields([]tlv.Field{tlv.U64(1, p.Seq), tlv.String(2, p.From)})
}

func (p *ping) UnmarshalBinary(data []byte) error {
	fields, err := tlv.DecodeFields(data)
	if err != nil {
		return err
	}
	seq, err := tlv.Require(fields, 1, tlv.TypeU64)
	if err != nil {
		return err
	}
	from, err := tlv.Require(fields, 2, tlv.TypeString)
	if err != nil {
		return err
	}
	p.From = string(from.Value)
	p.Seq, err = seq.U64()
	return err
}

func TestBinaryCodecDelegates(t *testing.T) {
	testlog.Start(t)
	c := Binary[ping]()
	b, err := c.Encode(ping{Seq: 9, From: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != (ping{Seq: 9, From: "127.0.0.1:1"}) {
		t.Fatalf("unexpected decode: %+v", out)
	}
	if _, err := c.Decode(b[:3]); !errors.Is(err, tlv.ErrShortFieldHeader) {
		t.Fatalf("expected wrapped tlv error, got %v", err)
	}
}
