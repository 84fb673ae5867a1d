package ws

import (
	"bytes"
	"testing"

	"github.com/wrenfield/httpcore/pkg/httperr"
)

// TestParseS5 mirrors spec.md scenario S5.
func TestParseS5(t *testing.T) {
	frame, consumed, ok, err := Parse([]byte{0x01, 0x01, 0x31}, false, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a complete frame")
	}
	if frame.Finished {
		t.Fatalf("expected finished=false")
	}
	if frame.Opcode != Text {
		t.Fatalf("expected Text opcode, got %v", frame.Opcode)
	}
	if string(frame.Payload) != "1" {
		t.Fatalf("unexpected payload: %q", frame.Payload)
	}
	if consumed != 3 {
		t.Fatalf("unexpected consumed: %d", consumed)
	}
}

// TestParseS6 mirrors spec.md scenario S6.
func TestParseS6(t *testing.T) {
	_, _, _, err := Parse([]byte{0x01, 0x02, 0x01, 0x01}, false, 1)
	if err == nil {
		t.Fatalf("expected Overflow error")
	}
	wsErr, ok := err.(*httperr.WSError)
	if !ok || wsErr.Code != httperr.Overflow {
		t.Fatalf("expected Overflow, got %v", err)
	}
}

func TestParseNeedsMoreBytes(t *testing.T) {
	_, _, ok, err := Parse([]byte{0x01}, false, 1024)
	if err != nil || ok {
		t.Fatalf("expected not-ok with no error, got ok=%v err=%v", ok, err)
	}
}

func TestParseMaskRoleMismatch(t *testing.T) {
	// server=true but unmasked bit in byte 1.
	_, _, _, err := Parse([]byte{0x81, 0x00}, true, 1024)
	if wsErr, ok := err.(*httperr.WSError); !ok || wsErr.Code != httperr.UnmaskedFrame {
		t.Fatalf("expected UnmaskedFrame, got %v", err)
	}

	// server=false but masked bit set.
	_, _, _, err = Parse([]byte{0x81, 0x80, 0, 0, 0, 0}, false, 1024)
	if wsErr, ok := err.(*httperr.WSError); !ok || wsErr.Code != httperr.MaskedFrame {
		t.Fatalf("expected MaskedFrame, got %v", err)
	}
}

func TestPingLengthLimit(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 126)
	frame := Emit(Ping, payload, true, false)
	_, _, _, err := Parse(frame, false, 1<<20)
	if wsErr, ok := err.(*httperr.WSError); !ok || wsErr.Code != httperr.InvalidLength {
		t.Fatalf("expected InvalidLength, got %v", err)
	}
}

func TestCloseOverflowMorphsToDefault(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, 200)
	frame := Emit(Close, payload, true, false)
	parsed, _, ok, err := Parse(frame, false, 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok")
	}
	if parsed.Opcode != Close || len(parsed.Payload) != 0 {
		t.Fatalf("expected default empty close frame, got %+v", parsed)
	}
}

// TestRoundTrip asserts parse(emit(m)) == m for representative lengths and
// opcodes, per spec.md §8 property 8.
func TestRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 125, 126, 65535, 65536}
	opcodes := []OpCode{Text, Binary, Ping, Pong}

	for _, op := range opcodes {
		for _, l := range lengths {
			if (op == Ping || op == Pong) && l > 125 {
				continue // control frames cap at 125 bytes by protocol
			}
			payload := bytes.Repeat([]byte{0xAB}, l)
			wire := Emit(op, payload, true, false)
			frame, _, ok, err := Parse(wire, false, 1<<20)
			if err != nil {
				t.Fatalf("opcode=%v len=%d: unexpected error: %v", op, l, err)
			}
			if !ok {
				t.Fatalf("opcode=%v len=%d: expected ok", op, l)
			}
			if frame.Opcode != op || !bytes.Equal(frame.Payload, payload) {
				t.Fatalf("opcode=%v len=%d: round trip mismatch", op, l)
			}
		}
	}
}

// TestMaskLaw asserts unmask(mask(p,k),k) == p, per spec.md §8 property 9.
func TestMaskLaw(t *testing.T) {
	key := [4]byte{0x11, 0x22, 0x33, 0x44}
	payload := []byte("the quick brown fox jumps over the lazy dog")
	masked := Mask(payload, key)
	unmasked := Mask(masked, key)
	if !bytes.Equal(unmasked, payload) {
		t.Fatalf("mask law violated")
	}
}

func TestEmitCloseEmptySentinel(t *testing.T) {
	wire := EmitClose(Empty, "ignored", true, false)
	frame, _, ok, err := Parse(wire, false, 1024)
	if err != nil || !ok {
		t.Fatalf("unexpected parse failure: ok=%v err=%v", ok, err)
	}
	if len(frame.Payload) != 0 {
		t.Fatalf("Empty close code must produce an empty payload, got %q", frame.Payload)
	}
}
