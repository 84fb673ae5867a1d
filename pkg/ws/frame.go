// Package ws implements the RFC 6455 WebSocket frame codec shared by
// server and client: bit-level parse and emit, masking, the 126/127
// extended length forms, and the close-frame/close-code rules, following
// original_source/src/ws/frame.rs and the stdlib-only rendition in
// momentics-hioload-ws/core/protocol/frame_codec.go.
package ws

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/wrenfield/httpcore/pkg/httperr"
)

// OpCode identifies a frame's payload interpretation.
type OpCode byte

const (
	Continuation OpCode = 0
	Text         OpCode = 1
	Binary       OpCode = 2
	Close        OpCode = 8
	Ping         OpCode = 9
	Pong         OpCode = 10
	Bad          OpCode = 0xFF
)

func opcodeFromByte(b byte) OpCode {
	switch OpCode(b) {
	case Continuation, Text, Binary, Close, Ping, Pong:
		return OpCode(b)
	default:
		return Bad
	}
}

// CloseCode is a 2-byte RFC 6455 close status code. Empty is a sentinel
// meaning "no code, no reason" — an empty-payload close frame.
type CloseCode uint16

const (
	CloseNormal          CloseCode = 1000
	CloseGoingAway       CloseCode = 1001
	CloseProtocolError   CloseCode = 1002
	CloseUnsupported     CloseCode = 1003
	CloseAbnormal        CloseCode = 1006
	CloseInvalidPayload  CloseCode = 1007
	ClosePolicyViolation CloseCode = 1008
	CloseTooBig          CloseCode = 1009
	CloseMandatoryExt    CloseCode = 1010
	CloseInternalError   CloseCode = 1011
	Empty                CloseCode = 0
)

// Frame is a parsed (always-unmasked) WebSocket frame.
type Frame struct {
	Finished bool
	RSV1     bool
	RSV2     bool
	RSV3     bool
	Opcode   OpCode
	Payload  []byte
}

// Parse decodes one frame from the front of buf. server selects the role:
// a server-received frame MUST be masked, a client-received frame MUST
// NOT be. maxSize bounds the decoded payload length. ok is false when buf
// doesn't yet hold a complete frame (more bytes needed); err is non-nil on
// a protocol violation.
//
// Close frames longer than 125 bytes are defensively replaced by a
// default empty-close frame rather than erroring, matching the source.
func Parse(buf []byte, server bool, maxSize int) (frame *Frame, consumed int, ok bool, err error) {
	if len(buf) < 2 {
		return nil, 0, false, nil
	}

	b0, b1 := buf[0], buf[1]
	finished := b0&0x80 != 0
	rsv1 := b0&0x40 != 0
	rsv2 := b0&0x20 != 0
	rsv3 := b0&0x10 != 0
	opcode := opcodeFromByte(b0 & 0x0F)

	masked := b1&0x80 != 0
	if server && !masked {
		return nil, 0, false, httperr.NewWSError(httperr.UnmaskedFrame)
	}
	if !server && masked {
		return nil, 0, false, httperr.NewWSError(httperr.MaskedFrame)
	}

	len7 := int(b1 & 0x7F)
	idx := 2
	var length int

	switch {
	case len7 < 126:
		length = len7
	case len7 == 126:
		if len(buf) < idx+2 {
			return nil, 0, false, nil
		}
		length = int(binary.BigEndian.Uint16(buf[idx : idx+2]))
		idx += 2
	default: // 127
		if len(buf) < idx+8 {
			return nil, 0, false, nil
		}
		length = int(binary.BigEndian.Uint64(buf[idx : idx+8]))
		idx += 8
	}

	if length > maxSize {
		return nil, 0, false, httperr.NewWSError(httperr.Overflow)
	}

	var maskKey [4]byte
	if server {
		if len(buf) < idx+4 {
			return nil, 0, false, nil
		}
		copy(maskKey[:], buf[idx:idx+4])
		idx += 4
	}

	if len(buf) < idx+length {
		return nil, 0, false, nil
	}
	payload := make([]byte, length)
	copy(payload, buf[idx:idx+length])
	idx += length

	if opcode == Bad {
		return nil, 0, false, httperr.NewInvalidOpcode(b0 & 0x0F)
	}
	if (opcode == Ping || opcode == Pong) && length > 125 {
		return nil, 0, false, httperr.NewInvalidLength(length)
	}
	if opcode == Close && length > 125 {
		return &Frame{Finished: true, Opcode: Close}, idx, true, nil
	}

	if server {
		applyMask(payload, maskKey)
	}

	return &Frame{
		Finished: finished,
		RSV1:     rsv1,
		RSV2:     rsv2,
		RSV3:     rsv3,
		Opcode:   opcode,
		Payload:  payload,
	}, idx, true, nil
}

// applyMask XORs payload in place with a per-byte rotation of key — the
// mask law: Unmask(Mask(p, k), k) == p, since XOR is its own inverse.
func applyMask(payload []byte, key [4]byte) {
	for i := range payload {
		payload[i] ^= key[i%4]
	}
}

// Mask is the public entry point for the mask law property test: masking
// and unmasking are the same XOR-rotation operation.
func Mask(payload []byte, key [4]byte) []byte {
	out := make([]byte, len(payload))
	copy(out, payload)
	applyMask(out, key)
	return out
}

// Emit serializes a frame for the wire. If genMask is true, a random
// 4-byte mask key is generated, written after the length field, and the
// payload is masked; otherwise the payload is written unmasked.
func Emit(opcode OpCode, payload []byte, finished bool, genMask bool) []byte {
	var header []byte

	b0 := byte(opcode)
	if finished {
		b0 |= 0x80
	}

	length := len(payload)
	switch {
	case length < 126:
		header = []byte{b0, byte(length)}
	case length <= 0xFFFF:
		header = make([]byte, 4)
		header[0] = b0
		header[1] = 126
		binary.BigEndian.PutUint16(header[2:4], uint16(length))
	default:
		header = make([]byte, 10)
		header[0] = b0
		header[1] = 127
		binary.BigEndian.PutUint64(header[2:10], uint64(length))
	}

	if !genMask {
		header[1] &^= 0x80
		out := make([]byte, 0, len(header)+length)
		out = append(out, header...)
		out = append(out, payload...)
		return out
	}

	header[1] |= 0x80
	var key [4]byte
	_, _ = rand.Read(key[:])

	out := make([]byte, 0, len(header)+4+length)
	out = append(out, header...)
	out = append(out, key[:]...)
	out = append(out, Mask(payload, key)...)
	return out
}

// EmitClose builds a close frame: a 2-byte big-endian close code followed
// by a UTF-8 reason, unless code is Empty, in which case the payload is
// empty.
func EmitClose(code CloseCode, reason string, finished bool, genMask bool) []byte {
	if code == Empty {
		return Emit(Close, nil, finished, genMask)
	}
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload[:2], uint16(code))
	copy(payload[2:], reason)
	return Emit(Close, payload, finished, genMask)
}
