package tlv

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

func TestEncodeDecodeFieldsRoundTripPreservesUnknown(t *testing.T) {
	testlog.Start(t)
	in := []Field{
		String(1, "ping"),
		U64(2, 42),
		{ID: 9999, Type: TypeBytes, Value: []byte{0xAA, 0xBB}}, // unknown field id
	}
	b, err := EncodeFields(in)
	if err != nil {
		t.Fatalf("encode fields: %v", err)
	}
	out, err := DecodeFields(b)
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(out))
	}
	seq, err := out[1].U64()
	if err != nil || seq != 42 {
		t.Fatalf("u64 got=%d err=%v", seq, err)
	}
	if out[2].ID != 9999 || out[2].Type != TypeBytes || !bytes.Equal(out[2].Value, []byte{0xAA, 0xBB}) {
		t.Fatalf("unknown field not preserved: %+v", out[2])
	}
}

func TestDecodeFieldsMalformedHeaderIsDeterministic(t *testing.T) {
	testlog.Start(t)
	_, err := DecodeFields([]byte{1, 2, 3})
	if !errors.Is(err, ErrShortFieldHeader) {
		t.Fatalf("expected ErrShortFieldHeader, got %v", err)
	}
}

func TestDecodeFieldsMalformedLengthIsDeterministic(t *testing.T) {
	testlog.Start(t)
	// id=1, type=string, len=5, value only 2 bytes
	payload := []byte{0, 1, TypeString, 0, 0, 0, 5, 'a', 'b'}
	_, err := DecodeFields(payload)
	if !errors.Is(err, ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func TestRequire(t *testing.T) {
	testlog.Start(t)
	fields := []Field{U8(1, 3), String(2, "x")}
	if f, err := Require(fields, 1, TypeU8); err != nil {
		t.Fatalf("require u8: %v", err)
	} else if v, _ := f.U8(); v != 3 {
		t.Fatalf("u8 got=%d", v)
	}
	if _, err := Require(fields, 2, TypeU64); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := Require(fields, 7, TypeU8); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}
