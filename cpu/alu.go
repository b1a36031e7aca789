package cpu

import (
	"math/bits"

	"github.com/paigeadelethompson/ia64emu/decoder"
	"github.com/paigeadelethompson/ia64emu/registers"
)

// CompareKind names the ten signed/unsigned comparison variants Compare
// dispatches on.
type CompareKind uint8

// The ten comparison variants spec.md §4.7 lists: six signed plus four
// unsigned.
const (
	CompareEqual CompareKind = iota
	CompareNotEqual
	CompareLessThan
	CompareLessEqual
	CompareGreaterThan
	CompareGreaterEqual
	CompareLessThanUnsigned
	CompareLessEqualUnsigned
	CompareGreaterThanUnsigned
	CompareGreaterEqualUnsigned
)

// ShiftKind names the three shift variants.
type ShiftKind uint8

// The three shift variants spec.md §4.7 lists.
const (
	ShiftLeft ShiftKind = iota
	ShiftRightArithmetic
	ShiftRightLogical
)

// MinMaxKind names the four min/max variants.
type MinMaxKind uint8

// The four min/max variants.
const (
	MinMaxMinSigned MinMaxKind = iota
	MinMaxMaxSigned
	MinMaxMinUnsigned
	MinMaxMaxUnsigned
)

// ExtendKind names the six zero/sign × byte/half/word extension variants.
type ExtendKind uint8

// The six extend variants.
const (
	ExtendZeroByte ExtendKind = iota
	ExtendZeroHalf
	ExtendZeroWord
	ExtendSignByte
	ExtendSignHalf
	ExtendSignWord
)

// LaneWidth names the three SIMD lane widths ParallelAdd operates on.
type LaneWidth uint8

// The three lane widths.
const (
	LaneByte LaneWidth = iota
	LaneHalf
	LaneWord
)

// ALU is the integer arithmetic/logic engine: every operation reads its
// operands from and writes its result to a shared *registers.Bank, the
// same shape the teacher's ALU wraps a *RegFile with. wrapping_* integer
// semantics (plain Go overflow) stand in for the host `wrapping_*` calls
// spec.md §4.7 names.
type ALU struct {
	regs *registers.Bank
}

// NewALU returns an ALU operating against the given register bank.
func NewALU(regs *registers.Bank) *ALU {
	return &ALU{regs: regs}
}

func (a *ALU) read(src uint8) (uint64, error) { return a.regs.GR(int(src)) }
func (a *ALU) write(dst uint8, v uint64) error { return a.regs.SetGR(int(dst), v) }

// Add computes dest = src1 + src2 with wrapping overflow.
func (a *ALU) Add(dest, src1, src2 uint8) error {
	x, err := a.read(src1)
	if err != nil {
		return err
	}
	y, err := a.read(src2)
	if err != nil {
		return err
	}
	return a.write(dest, x+y)
}

// Sub computes dest = src1 - src2 with wrapping overflow.
func (a *ALU) Sub(dest, src1, src2 uint8) error {
	x, err := a.read(src1)
	if err != nil {
		return err
	}
	y, err := a.read(src2)
	if err != nil {
		return err
	}
	return a.write(dest, x-y)
}

// And computes dest = src1 & src2.
func (a *ALU) And(dest, src1, src2 uint8) error {
	x, err := a.read(src1)
	if err != nil {
		return err
	}
	y, err := a.read(src2)
	if err != nil {
		return err
	}
	return a.write(dest, x&y)
}

// Or computes dest = src1 | src2.
func (a *ALU) Or(dest, src1, src2 uint8) error {
	x, err := a.read(src1)
	if err != nil {
		return err
	}
	y, err := a.read(src2)
	if err != nil {
		return err
	}
	return a.write(dest, x|y)
}

// Xor computes dest = src1 ^ src2.
func (a *ALU) Xor(dest, src1, src2 uint8) error {
	x, err := a.read(src1)
	if err != nil {
		return err
	}
	y, err := a.read(src2)
	if err != nil {
		return err
	}
	return a.write(dest, x^y)
}

// Compare evaluates one of the ten comparison kinds between src1 and
// src2, writing the boolean result to PR[destPR].
func (a *ALU) Compare(kind CompareKind, destPR, src1, src2 uint8) error {
	x, err := a.read(src1)
	if err != nil {
		return err
	}
	y, err := a.read(src2)
	if err != nil {
		return err
	}

	sx, sy := int64(x), int64(y)
	var result bool
	switch kind {
	case CompareEqual:
		result = x == y
	case CompareNotEqual:
		result = x != y
	case CompareLessThan:
		result = sx < sy
	case CompareLessEqual:
		result = sx <= sy
	case CompareGreaterThan:
		result = sx > sy
	case CompareGreaterEqual:
		result = sx >= sy
	case CompareLessThanUnsigned:
		result = x < y
	case CompareLessEqualUnsigned:
		result = x <= y
	case CompareGreaterThanUnsigned:
		result = x > y
	case CompareGreaterEqualUnsigned:
		result = x >= y
	}
	return a.regs.SetPR(int(destPR), result)
}

// TestBit reports whether bit pos of GR[src] is set, writing the result
// to PR[destPR]. A position of 64 or more is defined to be false, unlike
// every arithmetic shift below which wraps the amount into the low 6
// bits instead.
func (a *ALU) TestBit(destPR, src, pos uint8) error {
	if pos >= 64 {
		return a.regs.SetPR(int(destPR), false)
	}
	v, err := a.read(src)
	if err != nil {
		return err
	}
	return a.regs.SetPR(int(destPR), (v>>pos)&1 != 0)
}

// Shift performs one of the three shift kinds by amount, masking amount
// to its low 6 bits first (shifts of 64 or more therefore behave as a
// shift by amount%64, never as a no-op or zero).
func (a *ALU) Shift(kind ShiftKind, dest, src, amount uint8) error {
	v, err := a.read(src)
	if err != nil {
		return err
	}
	sh := uint(amount) & 0x3F
	var result uint64
	switch kind {
	case ShiftLeft:
		result = v << sh
	case ShiftRightArithmetic:
		result = uint64(int64(v) >> sh)
	case ShiftRightLogical:
		result = v >> sh
	}
	return a.write(dest, result)
}

// Deposit inserts the low len bits of GR[src2] into GR[src1] at bit
// position pos, writing the result to dest. len and pos are each taken
// modulo 64 so an out-of-range value cannot panic a shift.
func (a *ALU) Deposit(dest, src1, src2, pos, len uint8) error {
	base, err := a.read(src1)
	if err != nil {
		return err
	}
	insert, err := a.read(src2)
	if err != nil {
		return err
	}
	p := uint(pos) & 0x3F
	l := uint(len) & 0x3F
	mask := fieldMask(l) << p
	result := (base &^ mask) | ((insert << p) & mask)
	return a.write(dest, result)
}

// Extract pulls len bits out of GR[src] starting at bit position pos,
// zero-extending the result into dest.
func (a *ALU) Extract(dest, src, pos, len uint8) error {
	v, err := a.read(src)
	if err != nil {
		return err
	}
	p := uint(pos) & 0x3F
	l := uint(len) & 0x3F
	result := (v >> p) & fieldMask(l)
	return a.write(dest, result)
}

func fieldMask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// PopCount writes the number of set bits in GR[src] to dest.
func (a *ALU) PopCount(dest, src uint8) error {
	v, err := a.read(src)
	if err != nil {
		return err
	}
	return a.write(dest, uint64(bits.OnesCount64(v)))
}

// ParallelAdd adds src1 and src2 lane-by-lane at the given width, each
// lane wrapping independently (SIMD-style, no cross-lane carry).
func (a *ALU) ParallelAdd(width LaneWidth, dest, src1, src2 uint8) error {
	x, err := a.read(src1)
	if err != nil {
		return err
	}
	y, err := a.read(src2)
	if err != nil {
		return err
	}

	var laneBits uint
	switch width {
	case LaneByte:
		laneBits = 8
	case LaneHalf:
		laneBits = 16
	case LaneWord:
		laneBits = 32
	}
	lanes := 64 / laneBits
	laneMask := fieldMask(laneBits)

	var result uint64
	for i := uint(0); i < lanes; i++ {
		shift := i * laneBits
		lx := (x >> shift) & laneMask
		ly := (y >> shift) & laneMask
		sum := (lx + ly) & laneMask
		result |= sum << shift
	}
	return a.write(dest, result)
}

// SaturatingAdd adds src1 and src2, clamping to the representable range
// instead of wrapping: signed saturates to [MinInt64, MaxInt64],
// unsigned saturates to [0, MaxUint64].
func (a *ALU) SaturatingAdd(signed bool, dest, src1, src2 uint8) error {
	x, err := a.read(src1)
	if err != nil {
		return err
	}
	y, err := a.read(src2)
	if err != nil {
		return err
	}

	if !signed {
		sum := x + y
		if sum < x {
			sum = ^uint64(0)
		}
		return a.write(dest, sum)
	}

	sx, sy := int64(x), int64(y)
	sum := sx + sy
	switch {
	case sx > 0 && sy > 0 && sum < 0:
		sum = int64(^uint64(0) >> 1)
	case sx < 0 && sy < 0 && sum >= 0:
		sum = -int64(^uint64(0)>>1) - 1
	}
	return a.write(dest, uint64(sum))
}

// RotateMask rotates GR[src] left by amount bits (amount taken modulo
// 64), writing the result to dest.
func (a *ALU) RotateMask(dest, src, amount uint8) error {
	v, err := a.read(src)
	if err != nil {
		return err
	}
	return a.write(dest, bits.RotateLeft64(v, int(amount&0x3F)))
}

// MinMax evaluates one of the four min/max kinds between src1 and src2.
func (a *ALU) MinMax(kind MinMaxKind, dest, src1, src2 uint8) error {
	x, err := a.read(src1)
	if err != nil {
		return err
	}
	y, err := a.read(src2)
	if err != nil {
		return err
	}

	var result uint64
	switch kind {
	case MinMaxMinSigned:
		if int64(x) < int64(y) {
			result = x
		} else {
			result = y
		}
	case MinMaxMaxSigned:
		if int64(x) > int64(y) {
			result = x
		} else {
			result = y
		}
	case MinMaxMinUnsigned:
		if x < y {
			result = x
		} else {
			result = y
		}
	case MinMaxMaxUnsigned:
		if x > y {
			result = x
		} else {
			result = y
		}
	}
	return a.write(dest, result)
}

// Extend sign- or zero-extends the low byte/half/word of GR[src] to a
// full 64-bit value in dest.
func (a *ALU) Extend(kind ExtendKind, dest, src uint8) error {
	v, err := a.read(src)
	if err != nil {
		return err
	}

	var result uint64
	switch kind {
	case ExtendZeroByte:
		result = uint64(uint8(v))
	case ExtendZeroHalf:
		result = uint64(uint16(v))
	case ExtendZeroWord:
		result = uint64(uint32(v))
	case ExtendSignByte:
		result = uint64(int64(int8(v)))
	case ExtendSignHalf:
		result = uint64(int64(int16(v)))
	case ExtendSignWord:
		result = uint64(int64(int32(v)))
	}
	return a.write(dest, result)
}

// Merge selects each bit of the result from GR[src1] where the
// corresponding mask bit is set, and from GR[src2] otherwise, writing it
// to dest.
func (a *ALU) Merge(dest, src1, src2 uint8, mask uint64) error {
	x, err := a.read(src1)
	if err != nil {
		return err
	}
	y, err := a.read(src2)
	if err != nil {
		return err
	}
	return a.write(dest, (x & mask) | (y &^ mask))
}

// aluMajor enumerates the Major-field opcodes Core.executeALU recognises.
// This assignment is this repository's own opcode table: spec.md §4.1
// decodes only qp/ve/r1/r2/r3 for the ALU format and leaves the mapping
// from a real major/minor opcode byte to a semantic operation out of
// scope ("the specific arithmetic/logic/branch execute helpers ...
// trivial given decoded fields"). The operations that do not fit the
// three-register shape (Deposit/Extract/Merge) have no entry here and are
// called directly on ALU rather than through this switch.
type aluMajor uint8

const (
	aluMajorAdd aluMajor = iota
	aluMajorSub
	aluMajorAnd
	aluMajorOr
	aluMajorXor
	aluMajorCompareEqual
	aluMajorCompareNotEqual
	aluMajorCompareLessThan
	aluMajorCompareLessEqual
	aluMajorCompareGreaterThan
	aluMajorCompareGreaterEqual
	aluMajorCompareLessThanUnsigned
	aluMajorCompareLessEqualUnsigned
	aluMajorCompareGreaterThanUnsigned
	aluMajorCompareGreaterEqualUnsigned
	aluMajorTestBit
	aluMajorPopCount
	aluMajorMinMaxMinSigned
	aluMajorMinMaxMaxSigned
	aluMajorMinMaxMinUnsigned
	aluMajorMinMaxMaxUnsigned
	aluMajorRotateMask
)

// executeALU dispatches an ALU-unit slot by its Major opcode. R1 is the
// destination (a GR for arithmetic results, a PR for Compare/TestBit);
// R2 is the first GR source operand. R3 is the second GR source operand,
// except that TestBit and RotateMask use the R3 field's own value as the
// bit position or rotate amount, and PopCount ignores it.
func (c *Core) executeALU(f decoder.AFormat) error {
	engine := NewALU(c.Registers)
	switch aluMajor(f.Major) {
	case aluMajorAdd:
		return engine.Add(f.R1, f.R2, f.R3)
	case aluMajorSub:
		return engine.Sub(f.R1, f.R2, f.R3)
	case aluMajorAnd:
		return engine.And(f.R1, f.R2, f.R3)
	case aluMajorOr:
		return engine.Or(f.R1, f.R2, f.R3)
	case aluMajorXor:
		return engine.Xor(f.R1, f.R2, f.R3)
	case aluMajorCompareEqual:
		return engine.Compare(CompareEqual, f.R1, f.R2, f.R3)
	case aluMajorCompareNotEqual:
		return engine.Compare(CompareNotEqual, f.R1, f.R2, f.R3)
	case aluMajorCompareLessThan:
		return engine.Compare(CompareLessThan, f.R1, f.R2, f.R3)
	case aluMajorCompareLessEqual:
		return engine.Compare(CompareLessEqual, f.R1, f.R2, f.R3)
	case aluMajorCompareGreaterThan:
		return engine.Compare(CompareGreaterThan, f.R1, f.R2, f.R3)
	case aluMajorCompareGreaterEqual:
		return engine.Compare(CompareGreaterEqual, f.R1, f.R2, f.R3)
	case aluMajorCompareLessThanUnsigned:
		return engine.Compare(CompareLessThanUnsigned, f.R1, f.R2, f.R3)
	case aluMajorCompareLessEqualUnsigned:
		return engine.Compare(CompareLessEqualUnsigned, f.R1, f.R2, f.R3)
	case aluMajorCompareGreaterThanUnsigned:
		return engine.Compare(CompareGreaterThanUnsigned, f.R1, f.R2, f.R3)
	case aluMajorCompareGreaterEqualUnsigned:
		return engine.Compare(CompareGreaterEqualUnsigned, f.R1, f.R2, f.R3)
	case aluMajorTestBit:
		return engine.TestBit(f.R1, f.R2, f.R3)
	case aluMajorPopCount:
		return engine.PopCount(f.R1, f.R2)
	case aluMajorMinMaxMinSigned:
		return engine.MinMax(MinMaxMinSigned, f.R1, f.R2, f.R3)
	case aluMajorMinMaxMaxSigned:
		return engine.MinMax(MinMaxMaxSigned, f.R1, f.R2, f.R3)
	case aluMajorMinMaxMinUnsigned:
		return engine.MinMax(MinMaxMinUnsigned, f.R1, f.R2, f.R3)
	case aluMajorMinMaxMaxUnsigned:
		return engine.MinMax(MinMaxMaxUnsigned, f.R1, f.R2, f.R3)
	case aluMajorRotateMask:
		return engine.RotateMask(f.R1, f.R2, f.R3)
	default:
		return nil
	}
}

// integerMajor enumerates the Major-field opcodes Core.executeInteger
// recognises: the Shift, Extend, SaturatingAdd, and ParallelAdd families,
// which this repo assigns to the Integer-unit slot rather than the ALU
// slot since spec.md §4.1 does not distinguish them beyond naming both
// unit classes.
type integerMajor uint8

const (
	integerMajorShiftLeft integerMajor = iota
	integerMajorShiftRightArithmetic
	integerMajorShiftRightLogical
	integerMajorExtendZeroByte
	integerMajorExtendZeroHalf
	integerMajorExtendZeroWord
	integerMajorExtendSignByte
	integerMajorExtendSignHalf
	integerMajorExtendSignWord
	integerMajorSaturatingAddSigned
	integerMajorSaturatingAddUnsigned
	integerMajorParallelAddByte
	integerMajorParallelAddHalf
	integerMajorParallelAddWord
)

func (c *Core) executeInteger(f decoder.IFormat) error {
	engine := NewALU(c.Registers)
	switch integerMajor(f.Major) {
	case integerMajorShiftLeft:
		return engine.Shift(ShiftLeft, f.R1, f.R2, f.R3)
	case integerMajorShiftRightArithmetic:
		return engine.Shift(ShiftRightArithmetic, f.R1, f.R2, f.R3)
	case integerMajorShiftRightLogical:
		return engine.Shift(ShiftRightLogical, f.R1, f.R2, f.R3)
	case integerMajorExtendZeroByte:
		return engine.Extend(ExtendZeroByte, f.R1, f.R2)
	case integerMajorExtendZeroHalf:
		return engine.Extend(ExtendZeroHalf, f.R1, f.R2)
	case integerMajorExtendZeroWord:
		return engine.Extend(ExtendZeroWord, f.R1, f.R2)
	case integerMajorExtendSignByte:
		return engine.Extend(ExtendSignByte, f.R1, f.R2)
	case integerMajorExtendSignHalf:
		return engine.Extend(ExtendSignHalf, f.R1, f.R2)
	case integerMajorExtendSignWord:
		return engine.Extend(ExtendSignWord, f.R1, f.R2)
	case integerMajorSaturatingAddSigned:
		return engine.SaturatingAdd(true, f.R1, f.R2, f.R3)
	case integerMajorSaturatingAddUnsigned:
		return engine.SaturatingAdd(false, f.R1, f.R2, f.R3)
	case integerMajorParallelAddByte:
		return engine.ParallelAdd(LaneByte, f.R1, f.R2, f.R3)
	case integerMajorParallelAddHalf:
		return engine.ParallelAdd(LaneHalf, f.R1, f.R2, f.R3)
	case integerMajorParallelAddWord:
		return engine.ParallelAdd(LaneWord, f.R1, f.R2, f.R3)
	default:
		return nil
	}
}
