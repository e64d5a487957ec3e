// Package socketio encodes and decodes the Engine.IO v4 / Socket.IO v5
// text framing used over a plain websocket transport.
//
// A websocket text message is one Engine.IO frame: a type digit followed by
// its payload. Message frames ('4') carry one Socket.IO packet: a type digit,
// an optional "/namespace," prefix, an optional numeric ack id and a JSON
// body. An event is "42" followed by a JSON array whose first element is
// the event name, e.g. 42["update-chores"].
package socketio

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/forttask/internal/errors"
)

// Engine.IO frame types.
const (
	EngineOpen    byte = '0'
	EngineClose   byte = '1'
	EnginePing    byte = '2'
	EnginePong    byte = '3'
	EngineMessage byte = '4'
	EngineUpgrade byte = '5'
	EngineNoop    byte = '6'
)

// Socket.IO packet types.
const (
	PacketConnect      byte = '0'
	PacketDisconnect   byte = '1'
	PacketEvent        byte = '2'
	PacketAck          byte = '3'
	PacketConnectError byte = '4'
	PacketBinaryEvent  byte = '5'
	PacketBinaryAck    byte = '6'
)

const (
	DefaultNamespace = "/"
	Path             = "/socket.io/"
	ProtocolVersion  = "4"
)

var (
	ErrEmptyFrame   = errors.New("socketio: empty frame")
	ErrUnknownFrame = errors.New("socketio: unknown frame type")
	ErrBadPacket    = errors.New("socketio: malformed packet")
)

// Handshake is the payload of the Engine.IO open frame.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// Frame is one Engine.IO frame.
type Frame struct {
	Type    byte
	Payload []byte
}

// ParseFrame splits a websocket text message into frame type and payload.
func ParseFrame(msg []byte) (Frame, error) {
	if len(msg) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	t := msg[0]
	if t < EngineOpen || t > EngineNoop {
		return Frame{}, errors.Wrapf(ErrUnknownFrame, "%q", t)
	}
	return Frame{Type: t, Payload: msg[1:]}, nil
}

// Encode renders the frame as a websocket text message.
func (f Frame) Encode() []byte {
	out := make([]byte, 0, len(f.Payload)+1)
	out = append(out, f.Type)
	return append(out, f.Payload...)
}

// OpenFrame encodes the server's open frame.
func OpenFrame(h Handshake) ([]byte, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return nil, errors.Wrap(err, "marshal handshake")
	}
	return Frame{Type: EngineOpen, Payload: b}.Encode(), nil
}

// Packet is one Socket.IO packet.
type Packet struct {
	Type      byte
	Namespace string
	ID        int
	HasID     bool
	Data      json.RawMessage
}

// ParsePacket decodes the payload of an Engine.IO message frame.
func ParsePacket(payload []byte) (Packet, error) {
	if len(payload) == 0 {
		return Packet{}, errors.Wrap(ErrBadPacket, "empty")
	}
	p := Packet{Type: payload[0], Namespace: DefaultNamespace}
	if p.Type < PacketConnect || p.Type > PacketBinaryAck {
		return Packet{}, errors.Wrapf(ErrBadPacket, "type %q", p.Type)
	}
	rest := string(payload[1:])

	if p.Type == PacketBinaryEvent || p.Type == PacketBinaryAck {
		return Packet{}, errors.Wrap(ErrBadPacket, "binary packets are not supported")
	}

	if strings.HasPrefix(rest, "/") {
		nsp, after, ok := strings.Cut(rest, ",")
		if !ok {
			p.Namespace, rest = nsp, ""
		} else {
			p.Namespace, rest = nsp, after
		}
	}

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i > 0 {
		id, err := strconv.Atoi(rest[:i])
		if err != nil {
			return Packet{}, errors.Wrapf(ErrBadPacket, "ack id: %v", err)
		}
		p.ID, p.HasID = id, true
		rest = rest[i:]
	}

	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return Packet{}, errors.Wrap(ErrBadPacket, "body is not json")
		}
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

// Encode renders the packet, without the Engine.IO message prefix.
func (p Packet) Encode() []byte {
	var sb strings.Builder
	sb.WriteByte(p.Type)
	if p.Namespace != "" && p.Namespace != DefaultNamespace {
		sb.WriteString(p.Namespace)
		sb.WriteByte(',')
	}
	if p.HasID {
		sb.WriteString(strconv.Itoa(p.ID))
	}
	sb.Write(p.Data)
	return []byte(sb.String())
}

// Message wraps the packet in an Engine.IO message frame.
func (p Packet) Message() []byte {
	return Frame{Type: EngineMessage, Payload: p.Encode()}.Encode()
}

// EventPacket builds an event packet on the default namespace.
func EventPacket(name string, args ...any) (Packet, error) {
	arr := make([]any, 0, len(args)+1)
	arr = append(arr, name)
	arr = append(arr, args...)
	b, err := json.Marshal(arr)
	if err != nil {
		return Packet{}, errors.Wrapf(err, "marshal event %s", name)
	}
	return Packet{Type: PacketEvent, Namespace: DefaultNamespace, Data: b}, nil
}

// Event returns the name and raw arguments of an event packet.
func (p Packet) Event() (string, []json.RawMessage, error) {
	if p.Type != PacketEvent {
		return "", nil, errors.Wrapf(ErrBadPacket, "not an event: %q", p.Type)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(p.Data, &arr); err != nil || len(arr) == 0 {
		return "", nil, errors.Wrap(ErrBadPacket, "event body must be a non-empty array")
	}
	var name string
	if err := json.Unmarshal(arr[0], &name); err != nil {
		return "", nil, errors.Wrap(ErrBadPacket, "event name must be a string")
	}
	return name, arr[1:], nil
}

// ConnectPacket builds a namespace connect (client) or connect ack (server,
// with data such as {"sid": ...}).
func ConnectPacket(data any) (Packet, error) {
	p := Packet{Type: PacketConnect, Namespace: DefaultNamespace}
	if data == nil {
		return p, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return Packet{}, errors.Wrap(err, "marshal connect data")
	}
	p.Data = b
	return p, nil
}

// ConnectErrorMessage extracts the message of a connect_error packet.
func (p Packet) ConnectErrorMessage() string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(p.Data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("connect error %s", string(p.Data))
}
