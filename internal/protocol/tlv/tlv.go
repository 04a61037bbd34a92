package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLen is id(2) + type(1) + length(4).
const HeaderLen = 7

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrMissingField     = errors.New("tlv: missing field")
	ErrTypeMismatch     = errors.New("tlv: field type mismatch")
	ErrValueTooLarge    = errors.New("tlv: value too large")
)

const (
	TypeU8     uint8 = 1
	TypeU16    uint8 = 2
	TypeU32    uint8 = 3
	TypeU64    uint8 = 4
	TypeBool   uint8 = 5
	TypeString uint8 = 6
	TypeBytes  uint8 = 7
)

// Field is one id/type/value triple.
type Field struct {
	ID    uint16
	Type  uint8
	Value []byte
}

// AppendField appends the big-endian encoding of f to dst.
func AppendField(dst []byte, f Field) ([]byte, error) {
	if uint64(len(f.Value)) > uint64(^uint32(0)) {
		return dst, fmt.Errorf("%w: field %d", ErrValueTooLarge, f.ID)
	}
	dst = binary.BigEndian.AppendUint16(dst, f.ID)
	dst = append(dst, f.Type)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(f.Value)))
	return append(dst, f.Value...), nil
}

func EncodeFields(fields []Field) ([]byte, error) {
	size := 0
	for _, f := range fields {
		size += HeaderLen + len(f.Value)
	}
	out := make([]byte, 0, size)
	var err error
	for _, f := range fields {
		if out, err = AppendField(out, f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeFields parses payload strictly: a trailing partial field is an error.
// Unknown ids are preserved.
func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0, 4)
	for i := 0; i < len(payload); {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		typeID := payload[i+2]
		l := binary.BigEndian.Uint32(payload[i+3 : i+7])
		i += HeaderLen
		if uint64(len(payload)-i) < uint64(l) {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+int(l)])
		i += int(l)
		fields = append(fields, Field{ID: id, Type: typeID, Value: val})
	}
	return fields, nil
}

func GetField(fields []Field, id uint16) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Require returns field id, checking its type.
func Require(fields []Field, id uint16, typ uint8) (Field, error) {
	f, ok := GetField(fields, id)
	if !ok {
		return Field{}, fmt.Errorf("%w: %d", ErrMissingField, id)
	}
	if f.Type != typ {
		return Field{}, fmt.Errorf("%w: field %d got %d want %d", ErrTypeMismatch, id, f.Type, typ)
	}
	return f, nil
}

func U8(id uint16, v uint8) Field {
	return Field{ID: id, Type: TypeU8, Value: []byte{v}}
}

func U64(id uint16, v uint64) Field {
	return Field{ID: id, Type: TypeU64, Value: binary.BigEndian.AppendUint64(nil, v)}
}

func String(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

func Bytes(id uint16, v []byte) Field {
	return Field{ID: id, Type: TypeBytes, Value: v}
}

func (f Field) U8() (uint8, error) {
	if len(f.Value) != 1 {
		return 0, fmt.Errorf("tlv: invalid u8 length: %d", len(f.Value))
	}
	return f.Value[0], nil
}

func (f Field) U64() (uint64, error) {
	if len(f.Value) != 8 {
		return 0, fmt.Errorf("tlv: invalid u64 length: %d", len(f.Value))
	}
	return binary.BigEndian.Uint64(f.Value), nil
}
