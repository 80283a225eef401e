// Package protocol implements the two datagram formats exchanged between routers.
//
// Every datagram starts with a one byte type tag.
//
//	UPDATE: 0x00 | { dest[4] cost[1] }*
//	HELLO:  0x01 | src[4] | dst[4] | utf-8 text
//
// There is no length prefix, the datagram boundary is the message boundary.
package protocol

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/encodeous/strand/state"
)

type MsgType byte

const (
	TypeUpdate MsgType = 0
	TypeHello  MsgType = 1
)

const (
	addrLen         = 4
	UpdateRecordLen = addrLen + 1
	HelloHeaderLen  = 1 + 2*addrLen
)

func (t MsgType) String() string {
	switch t {
	case TypeUpdate:
		return "UPDATE"
	case TypeHello:
		return "HELLO"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", byte(t))
	}
}

var (
	ErrMalformed    = errors.New("malformed datagram")
	ErrCostOverflow = errors.New("cost does not fit in an update record")
)

// DecodeError describes why a datagram was rejected. It always matches ErrMalformed.
type DecodeError struct {
	Tag    byte
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMalformed, MsgType(e.Tag), e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrMalformed
}

func malformed(tag byte, format string, args ...any) error {
	return &DecodeError{Tag: tag, Reason: fmt.Sprintf(format, args...)}
}

// Message is implemented by *Update and *Hello
type Message interface {
	Type() MsgType
}

type UpdateRecord struct {
	Dest state.NodeAddr
	Cost uint8
}

type Update struct {
	Records []UpdateRecord
}

func (u *Update) Type() MsgType {
	return TypeUpdate
}

type Hello struct {
	Src  state.NodeAddr
	Dst  state.NodeAddr
	Text string
}

func (h *Hello) Type() MsgType {
	return TypeHello
}

func (h *Hello) String() string {
	return fmt.Sprintf("(src: %s, dst: %s, text: %q)", h.Src, h.Dst, h.Text)
}

// EncodeUpdate serializes the full table. A single cost above state.MaxWireCost fails the whole message.
func EncodeUpdate(routes []state.Route) ([]byte, error) {
	buf := make([]byte, 0, 1+len(routes)*UpdateRecordLen)
	buf = append(buf, byte(TypeUpdate))
	for _, route := range routes {
		if route.Cost > state.MaxWireCost {
			return nil, fmt.Errorf("%w: %s has cost %d", ErrCostOverflow, route.Dest, route.Cost)
		}
		buf = append(buf, route.Dest[:]...)
		buf = append(buf, byte(route.Cost))
	}
	return buf, nil
}

func DecodeUpdate(pkt []byte) (*Update, error) {
	if len(pkt) == 0 {
		return nil, malformed(byte(TypeUpdate), "empty datagram")
	}
	if pkt[0] != byte(TypeUpdate) {
		return nil, malformed(pkt[0], "expected %s tag", TypeUpdate)
	}
	body := pkt[1:]
	if len(body)%UpdateRecordLen != 0 {
		return nil, malformed(pkt[0], "body length %d is not a multiple of %d", len(body), UpdateRecordLen)
	}
	update := &Update{
		Records: make([]UpdateRecord, 0, len(body)/UpdateRecordLen),
	}
	for i := 0; i < len(body); i += UpdateRecordLen {
		rec := UpdateRecord{Cost: body[i+addrLen]}
		copy(rec.Dest[:], body[i:i+addrLen])
		update.Records = append(update.Records, rec)
	}
	return update, nil
}

func EncodeHello(hello *Hello) ([]byte, error) {
	if !utf8.ValidString(hello.Text) {
		return nil, malformed(byte(TypeHello), "text is not valid utf-8")
	}
	buf := make([]byte, 0, HelloHeaderLen+len(hello.Text))
	buf = append(buf, byte(TypeHello))
	buf = append(buf, hello.Src[:]...)
	buf = append(buf, hello.Dst[:]...)
	buf = append(buf, hello.Text...)
	return buf, nil
}

func DecodeHello(pkt []byte) (*Hello, error) {
	if len(pkt) == 0 {
		return nil, malformed(byte(TypeHello), "empty datagram")
	}
	if pkt[0] != byte(TypeHello) {
		return nil, malformed(pkt[0], "expected %s tag", TypeHello)
	}
	if len(pkt) < HelloHeaderLen {
		return nil, malformed(pkt[0], "datagram is %d bytes, header needs %d", len(pkt), HelloHeaderLen)
	}
	text := pkt[HelloHeaderLen:]
	if !utf8.Valid(text) {
		return nil, malformed(pkt[0], "text is not valid utf-8")
	}
	hello := &Hello{Text: string(text)}
	copy(hello.Src[:], pkt[1:1+addrLen])
	copy(hello.Dst[:], pkt[1+addrLen:HelloHeaderLen])
	return hello, nil
}

// Decode dispatches on the type tag and returns either *Update or *Hello
func Decode(pkt []byte) (Message, error) {
	if len(pkt) == 0 {
		return nil, &DecodeError{Tag: 0xff, Reason: "empty datagram"}
	}
	switch MsgType(pkt[0]) {
	case TypeUpdate:
		return DecodeUpdate(pkt)
	case TypeHello:
		return DecodeHello(pkt)
	default:
		return nil, malformed(pkt[0], "unknown message type")
	}
}
