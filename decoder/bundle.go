// Package decoder turns 128-bit IA-64 instruction bundles into a template
// tag and three slice-and-mask-decoded slots, following the per-format
// decode idiom of the teacher's insts/decoder.go (small deterministic
// routines that mask a fixed bit-field layout out of a raw word) rather
// than a general-purpose bitstream parser.
package decoder

import (
	"encoding/binary"

	"github.com/paigeadelethompson/ia64emu/ia64err"
)

// Template is the 5-bit bundle template tag, spec.md §4.1.
type Template uint8

// The eight recognised bundle templates.
const (
	TemplateMII Template = 0b00000
	TemplateMIB Template = 0b00001
	TemplateMMI Template = 0b00010
	TemplateMMF Template = 0b00011
	TemplateMLX Template = 0b00100
	TemplateFBI Template = 0b01000
	TemplateBBB Template = 0b01001
	TemplateAAA Template = 0b01010
)

// Unit is the functional-unit class a bundle slot is assigned to.
type Unit uint8

// The six functional-unit classes a slot can carry.
const (
	UnitM Unit = iota
	UnitI
	UnitF
	UnitB
	UnitA
	UnitL
	UnitX
)

func (u Unit) String() string {
	switch u {
	case UnitM:
		return "M"
	case UnitI:
		return "I"
	case UnitF:
		return "F"
	case UnitB:
		return "B"
	case UnitA:
		return "A"
	case UnitL:
		return "L"
	case UnitX:
		return "X"
	default:
		return "?"
	}
}

// templateUnits is the template → slot-unit assignment table, spec.md
// §4.1.
var templateUnits = map[Template][3]Unit{
	TemplateMII: {UnitM, UnitI, UnitI},
	TemplateMIB: {UnitM, UnitI, UnitB},
	TemplateMMI: {UnitM, UnitM, UnitI},
	TemplateMMF: {UnitM, UnitM, UnitF},
	TemplateMLX: {UnitM, UnitL, UnitX},
	TemplateFBI: {UnitF, UnitB, UnitI},
	TemplateBBB: {UnitB, UnitB, UnitB},
	TemplateAAA: {UnitA, UnitA, UnitA},
}

// Slot is one 41-bit decoded bundle slot: its assigned unit and the raw
// 41-bit payload extracted from the bundle. For an MLX bundle, slot 1
// (Unit L) and slot 2 (Unit X) together carry a single logical long
// immediate instruction — callers combine them via LongImmediate.
type Slot struct {
	Unit Unit
	Raw  uint64
}

// Bundle is a decoded 128-bit instruction container.
type Bundle struct {
	Template Template
	Slots    [3]Slot
}

const (
	templateWidth = 5
	slotWidth     = 41
)

// extractBits reads a `width`-bit field starting at bit `start` of the
// little-endian 128-bit value represented by (lo, hi). width must be < 64.
func extractBits(lo, hi uint64, start, width uint) uint64 {
	mask := (uint64(1) << width) - 1
	switch {
	case start >= 64:
		return (hi >> (start - 64)) & mask
	case start+width <= 64:
		return (lo >> start) & mask
	default:
		loBits := 64 - start
		combined := (lo >> start) | (hi << loBits)
		return combined & mask
	}
}

// insertBits ORs a `width`-bit value into the little-endian 128-bit value
// represented by (*lo, *hi) starting at bit `start`. width must be < 64.
func insertBits(lo, hi *uint64, start, width uint, value uint64) {
	masked := value & ((uint64(1) << width) - 1)
	switch {
	case start >= 64:
		*hi |= masked << (start - 64)
	case start+width <= 64:
		*lo |= masked << start
	default:
		loBits := 64 - start
		*lo |= masked << start
		*hi |= masked >> loBits
	}
}

// Decode parses a 16-byte little-endian bundle. Unrecognised templates
// raise a DecodeError, per spec.md §4.1.
func Decode(raw [16]byte) (*Bundle, error) {
	lo := binary.LittleEndian.Uint64(raw[0:8])
	hi := binary.LittleEndian.Uint64(raw[8:16])

	template := Template(extractBits(lo, hi, 0, templateWidth))
	units, ok := templateUnits[template]
	if !ok {
		return nil, ia64err.NewDecodeError("unrecognised bundle template")
	}

	b := &Bundle{Template: template}
	b.Slots[0] = Slot{Unit: units[0], Raw: extractBits(lo, hi, 5, slotWidth)}
	b.Slots[1] = Slot{Unit: units[1], Raw: extractBits(lo, hi, 46, slotWidth)}
	b.Slots[2] = Slot{Unit: units[2], Raw: extractBits(lo, hi, 87, slotWidth)}
	return b, nil
}

// Encode re-serialises a Bundle into its 16-byte little-endian form. This
// is the inverse of Decode and is exact: decoding a valid bundle and
// re-encoding it reproduces the original 128 bits (spec.md §8).
func (b *Bundle) Encode() [16]byte {
	var lo, hi uint64
	insertBits(&lo, &hi, 0, templateWidth, uint64(b.Template))
	insertBits(&lo, &hi, 5, slotWidth, b.Slots[0].Raw)
	insertBits(&lo, &hi, 46, slotWidth, b.Slots[1].Raw)
	insertBits(&lo, &hi, 87, slotWidth, b.Slots[2].Raw)

	var out [16]byte
	binary.LittleEndian.PutUint64(out[0:8], lo)
	binary.LittleEndian.PutUint64(out[8:16], hi)
	return out
}

// LongImmediate combines an MLX bundle's L (slot 1) and X (slot 2) slots
// into the single logical 82-bit long-immediate payload they jointly
// encode. Returns an error if the bundle's template is not MLX.
func (b *Bundle) LongImmediate() (lo41, hi41 uint64, err error) {
	if b.Template != TemplateMLX {
		return 0, 0, ia64err.NewDecodeError("LongImmediate requires an MLX bundle")
	}
	return b.Slots[1].Raw, b.Slots[2].Raw, nil
}
