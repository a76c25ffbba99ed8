package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrorKind classifies why a frame failed to parse.
type ErrorKind int

const (
	MalformedFrame ErrorKind = iota
	MissingType
	UnknownType
	InvalidPayloadShape
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedFrame:
		return "malformed frame"
	case MissingType:
		return "missing type"
	case UnknownType:
		return "unknown type"
	case InvalidPayloadShape:
		return "invalid payload shape"
	}
	return "unknown error kind"
}

// Code maps the parse failure onto the wire error code sent back to the peer.
func (k ErrorKind) Code() string {
	switch k {
	case MissingType:
		return CodeMissingType
	case UnknownType:
		return CodeUnknownType
	case InvalidPayloadShape:
		return CodeInvalidPayload
	default:
		return CodeMalformedFrame
	}
}

// CodecError is a parse failure with its kind.
type CodecError struct {
	Kind ErrorKind
	Err  error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *CodecError) Unwrap() error { return e.Err }

func codecErr(kind ErrorKind, err error) *CodecError {
	return &CodecError{Kind: kind, Err: err}
}

// Parse decodes and validates one frame. Messages with unknown types or
// structurally wrong payloads never reach the protocol machine: Parse decodes
// the payload for its declared type and checks field constraints up front.
func Parse(data []byte) (*Message, *CodecError) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, codecErr(MalformedFrame, err)
	}
	if msg.Type == "" {
		return nil, codecErr(MissingType, nil)
	}

	switch msg.Type {
	case TypeConnect:
		// Direction is ambiguous at parse time; both shapes share field names
		// with no cross-constraints, so decoding either way validates it.
		var req ConnectRequest
		if err := decodePayload(msg.Payload, &req); err != nil {
			return nil, codecErr(InvalidPayloadShape, err)
		}
	case TypeMove:
		mv, err := DecodeMove(&msg)
		if err != nil {
			return nil, codecErr(InvalidPayloadShape, err)
		}
		if mv.DX < -1 || mv.DX > 1 || mv.DY < -1 || mv.DY > 1 {
			return nil, codecErr(InvalidPayloadShape, fmt.Errorf("move deltas out of range: dx=%d dy=%d", mv.DX, mv.DY))
		}
		if mv.DX == 0 && mv.DY == 0 {
			return nil, codecErr(InvalidPayloadShape, fmt.Errorf("move deltas both zero"))
		}
	case TypeMoveFailed:
		var p MoveFailedPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, codecErr(InvalidPayloadShape, err)
		}
	case TypeStateUpdate:
		var p StateUpdatePayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, codecErr(InvalidPayloadShape, err)
		}
	case TypePlayerJoined:
		var p PlayerJoinedPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, codecErr(InvalidPayloadShape, err)
		}
	case TypePlayerLeft:
		var p PlayerLeftPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, codecErr(InvalidPayloadShape, err)
		}
	case TypeSetPlayerName:
		p, err := DecodeSetPlayerName(&msg)
		if err != nil {
			return nil, codecErr(InvalidPayloadShape, err)
		}
		if p.PlayerName == "" {
			return nil, codecErr(InvalidPayloadShape, fmt.Errorf("empty playerName"))
		}
	case TypeError:
		var p ErrorPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, codecErr(InvalidPayloadShape, err)
		}
	case TypeDisconnect, TypeRestart, TypePing, TypePong:
		// Empty payloads; anything present must at least be an object.
		var p map[string]json.RawMessage
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, codecErr(InvalidPayloadShape, err)
		}
	default:
		return nil, codecErr(UnknownType, fmt.Errorf("type %q", msg.Type))
	}

	return &msg, nil
}

// Encode marshals a message to one wire frame, filling in the sender
// timestamp if absent.
func Encode(msg *Message) ([]byte, error) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	return json.Marshal(msg)
}

// NewMessage builds a message with the given typed payload.
func NewMessage(t Type, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: t, Payload: raw, Timestamp: time.Now().UnixMilli()}, nil
}

// MustMessage is NewMessage for payload types that cannot fail to marshal.
func MustMessage(t Type, payload any) *Message {
	msg, err := NewMessage(t, payload)
	if err != nil {
		panic(fmt.Sprintf("marshal %s payload: %v", t, err))
	}
	return msg
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func DecodeConnectRequest(msg *Message) (ConnectRequest, error) {
	var p ConnectRequest
	err := decodePayload(msg.Payload, &p)
	return p, err
}

func DecodeConnectResponse(msg *Message) (ConnectResponse, error) {
	var p ConnectResponse
	err := decodePayload(msg.Payload, &p)
	return p, err
}

func DecodeMove(msg *Message) (MovePayload, error) {
	var p MovePayload
	err := decodePayload(msg.Payload, &p)
	return p, err
}

func DecodeMoveFailed(msg *Message) (MoveFailedPayload, error) {
	var p MoveFailedPayload
	err := decodePayload(msg.Payload, &p)
	return p, err
}

func DecodeStateUpdate(msg *Message) (StateUpdatePayload, error) {
	var p StateUpdatePayload
	err := decodePayload(msg.Payload, &p)
	return p, err
}

func DecodePlayerJoined(msg *Message) (PlayerJoinedPayload, error) {
	var p PlayerJoinedPayload
	err := decodePayload(msg.Payload, &p)
	return p, err
}

func DecodePlayerLeft(msg *Message) (PlayerLeftPayload, error) {
	var p PlayerLeftPayload
	err := decodePayload(msg.Payload, &p)
	return p, err
}

func DecodeSetPlayerName(msg *Message) (SetPlayerNamePayload, error) {
	var p SetPlayerNamePayload
	err := decodePayload(msg.Payload, &p)
	return p, err
}

func DecodeError(msg *Message) (ErrorPayload, error) {
	var p ErrorPayload
	err := decodePayload(msg.Payload, &p)
	return p, err
}

// ErrorMessage builds an ERROR frame.
func ErrorMessage(code, text, context string) *Message {
	return MustMessage(TypeError, ErrorPayload{Code: code, Message: text, Context: context})
}
