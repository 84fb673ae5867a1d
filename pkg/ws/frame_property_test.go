package ws

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestMaskLawProperty generalizes TestMaskLaw over arbitrary keys and
// payloads with gopter, the property-testing library the teacher already
// depends on (used for its metrics/plugin-registry property suites).
func TestMaskLawProperty(t *testing.T) {
	props := gopter.NewProperties(nil)

	props.Property("unmask(mask(p,k),k) == p", prop.ForAll(
		func(k0, k1, k2, k3 uint8, payload []byte) bool {
			key := [4]byte{k0, k1, k2, k3}
			masked := Mask(payload, key)
			unmasked := Mask(masked, key)
			return bytes.Equal(unmasked, payload)
		},
		gen.UInt8Range(0, 255),
		gen.UInt8Range(0, 255),
		gen.UInt8Range(0, 255),
		gen.UInt8Range(0, 255),
		gen.SliceOf(gen.UInt8Range(0, 255)),
	))

	props.Property("parse(emit(m)) == m for Text/Binary frames", prop.ForAll(
		func(opcodeIsText bool, finished bool, payload []byte) bool {
			op := Binary
			if opcodeIsText {
				op = Text
			}
			wire := Emit(op, payload, finished, false)
			frame, _, ok, err := Parse(wire, false, 1<<20)
			if err != nil || !ok {
				return false
			}
			return frame.Opcode == op && frame.Finished == finished && bytes.Equal(frame.Payload, payload)
		},
		gen.Bool(),
		gen.Bool(),
		gen.SliceOf(gen.UInt8Range(0, 255)),
	))

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	props.TestingRun(t, params)
}
