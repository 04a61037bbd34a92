package node

import (
	"fmt"

	"github.com/danmuck/edgewire/internal/protocol/tlv"
	"github.com/danmuck/edgewire/internal/transport"
)

// Kind tags a node message.
type Kind uint8

const (
	KindNone Kind = iota
	KindPing
	KindPong
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	case KindData:
		return "data"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Message is the application message a node sends and handles.
type Message struct {
	Kind Kind
	Seq  uint64
	Body []byte
}

// Envelope is the wire form of Message. It carries no sender address; the
// datagram source is the only reply route.
type Envelope struct {
	Kind Kind
	Seq  uint64
	Body []byte
}

// Event is one inbound message as seen by the dispatcher and subscribers.
// From is the datagram source.
type Event struct {
	From    transport.SocketAddr
	Message Message
}

const (
	fieldKind uint16 = 1
	fieldSeq  uint16 = 2
	fieldBody uint16 = 3
)

func (e Envelope) MarshalBinary() ([]byte, error) {
	return tlv.EncodeFields([]tlv.Field{
		tlv.U8(fieldKind, uint8(e.Kind)),
		tlv.U64(fieldSeq, e.Seq),
		tlv.Bytes(fieldBody, e.Body),
	})
}

func (e *Envelope) UnmarshalBinary(data []byte) error {
	fields, err := tlv.DecodeFields(data)
	if err != nil {
		return err
	}
	kind, err := tlv.Require(fields, fieldKind, tlv.TypeU8)
	if err != nil {
		return err
	}
	seq, err := tlv.Require(fields, fieldSeq, tlv.TypeU64)
	if err != nil {
		return err
	}
	body, err := tlv.Require(fields, fieldBody, tlv.TypeBytes)
	if err != nil {
		return err
	}
	k, err := kind.U8()
	if err != nil {
		return err
	}
	if Kind(k) == KindNone || Kind(k) > KindData {
		return fmt.Errorf("node: unknown message kind %d", k)
	}
	s, err := seq.U64()
	if err != nil {
		return err
	}
	*e = Envelope{Kind: Kind(k), Seq: s, Body: body.Value}
	if len(e.Body) == 0 {
		e.Body = nil
	}
	return nil
}

func envelopeOf(m Message) Envelope {
	return Envelope{Kind: m.Kind, Seq: m.Seq, Body: m.Body}
}

func eventOf(e Envelope, from transport.SocketAddr) Event {
	return Event{From: from, Message: Message{Kind: e.Kind, Seq: e.Seq, Body: e.Body}}
}
