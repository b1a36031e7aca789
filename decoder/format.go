package decoder

// Every slot format carries qp:6 at bits 0..6, spec.md §4.1. qpWidth is the
// common leading field width every per-unit format below starts with.
const qpWidth = 6

func qpOf(raw uint64) uint8 {
	return uint8(raw & ((1 << qpWidth) - 1)) & 0x3F
}

// OrderingCompleter names the ordering suffix synthesised from a Memory
// format's x2 field.
type OrderingCompleter uint8

// The four ordering completers a Memory-format x2 value selects.
const (
	OrderingNone OrderingCompleter = iota
	OrderingAcq
	OrderingRel
	OrderingFence
)

// HintCompleter names the cache-hint suffix synthesised from a Memory
// format's hint field.
type HintCompleter uint8

// The four hint completers a Memory-format hint value selects.
const (
	HintNone HintCompleter = iota
	HintTemporal
	HintNonTemporal
	HintReserved
)

// SpeculationCompleter names the speculation suffix synthesised from a
// Memory format's x4 field.
type SpeculationCompleter uint8

// The four speculation completers a Memory-format x4 value selects.
const (
	SpeculationNone SpeculationCompleter = iota
	SpeculationSpeculative
	SpeculationCheck
	SpeculationAdvanced
)

// MFormat is the decoded field layout of a Memory-unit slot, spec.md
// §4.1: major:8, x2:2, hint:2, x4:2, r3:7, r1:7, imm7:7 after the common
// qp:6.
type MFormat struct {
	QP     uint8
	Major  uint8
	X2     uint8
	Hint   uint8
	X4     uint8
	R3     uint8
	R1     uint8
	Imm7   uint8
}

// DecodeMFormat extracts an MFormat from a 41-bit Memory-unit slot.
func DecodeMFormat(raw uint64) MFormat {
	return MFormat{
		QP:    qpOf(raw),
		Major: uint8(bitsOf(raw, 6, 8)),
		X2:    uint8(bitsOf(raw, 14, 2)),
		Hint:  uint8(bitsOf(raw, 16, 2)),
		X4:    uint8(bitsOf(raw, 18, 2)),
		R3:    uint8(bitsOf(raw, 20, 7)),
		R1:    uint8(bitsOf(raw, 27, 7)),
		Imm7:  uint8(bitsOf(raw, 34, 7)),
	}
}

// Ordering synthesises the ordering completer implied by X2.
func (m MFormat) Ordering() OrderingCompleter { return OrderingCompleter(m.X2) }

// CacheHint synthesises the cache-hint completer implied by Hint.
func (m MFormat) CacheHint() HintCompleter { return HintCompleter(m.Hint) }

// Speculation synthesises the speculation completer implied by X4.
func (m MFormat) Speculation() SpeculationCompleter { return SpeculationCompleter(m.X4) }

// BranchType names the btype field's two recognised shapes.
type BranchType uint8

// The two branch-family values spec.md §4.1 names (conditional vs. call).
const (
	BranchCond BranchType = iota
	BranchCall
)

// PredictionCompleter names the four static-prediction completers a
// Branch format's p field selects.
type PredictionCompleter uint8

// The four branch prediction completers.
const (
	PredictionSptk PredictionCompleter = iota
	PredictionSpnt
	PredictionDptk
	PredictionDpnt
)

// BFormat is the decoded field layout of a Branch-unit slot, spec.md
// §4.1: major:8, btype:2, wh:2, d:1, imm20:20, p:2 after qp:6.
type BFormat struct {
	QP     uint8
	Major  uint8
	BType  uint8
	WH     uint8
	D      bool
	Imm20  uint32
	P      uint8
}

// DecodeBFormat extracts a BFormat from a 41-bit Branch-unit slot.
func DecodeBFormat(raw uint64) BFormat {
	return BFormat{
		QP:    qpOf(raw),
		Major: uint8(bitsOf(raw, 6, 8)),
		BType: uint8(bitsOf(raw, 14, 2)),
		WH:    uint8(bitsOf(raw, 16, 2)),
		D:     bitsOf(raw, 18, 1) != 0,
		Imm20: uint32(bitsOf(raw, 19, 20)),
		P:     uint8(bitsOf(raw, 39, 2)),
	}
}

// Prediction synthesises the static-prediction completer implied by P.
func (f BFormat) Prediction() PredictionCompleter { return PredictionCompleter(f.P) }

// Dealloc reports whether the branch carries the return-and-deallocate
// completer (named "dealloc?" in spec.md §4.1): true whenever D is set.
// BType is not consulted; executeBranch acts on it only for call-family
// branches.
func (f BFormat) Dealloc() bool { return f.D }

// Precision names the F-format's sf field, single vs. double.
type Precision uint8

// The two floating-point precisions an F-format's sf bit selects.
const (
	PrecisionSingle Precision = iota
	PrecisionDouble
)

// FFormat is the decoded field layout of a Floating-unit slot. spec.md
// §4.1 names only sf:1 explicitly; Major/R1/R2/R3 are carried so the
// processor core has concrete operand fields to dispatch on, following
// the same three-operand register shape every other format in this slot
// width uses.
type FFormat struct {
	QP    uint8
	Major uint8
	SF    bool
	R3    uint8
	R2    uint8
	R1    uint8
}

// DecodeFFormat extracts an FFormat from a 41-bit Floating-unit slot.
func DecodeFFormat(raw uint64) FFormat {
	return FFormat{
		QP:    qpOf(raw),
		Major: uint8(bitsOf(raw, 6, 8)),
		SF:    bitsOf(raw, 14, 1) != 0,
		R3:    uint8(bitsOf(raw, 15, 7)),
		R2:    uint8(bitsOf(raw, 22, 7)),
		R1:    uint8(bitsOf(raw, 29, 7)),
	}
}

// Precision reports the precision selected by SF.
func (f FFormat) Precision() Precision {
	if f.SF {
		return PrecisionDouble
	}
	return PrecisionSingle
}

// AFormat is the decoded field layout of an ALU-unit slot. spec.md §4.1
// names only ve:1 explicitly ("optional \"ve\""); Major/R1/R2/R3 carry the
// three-operand register shape the ALU dispatcher in package cpu needs.
type AFormat struct {
	QP    uint8
	Major uint8
	VE    bool
	R3    uint8
	R2    uint8
	R1    uint8
}

// DecodeAFormat extracts an AFormat from a 41-bit ALU-unit slot.
func DecodeAFormat(raw uint64) AFormat {
	return AFormat{
		QP:    qpOf(raw),
		Major: uint8(bitsOf(raw, 6, 8)),
		VE:    bitsOf(raw, 14, 1) != 0,
		R3:    uint8(bitsOf(raw, 15, 7)),
		R2:    uint8(bitsOf(raw, 22, 7)),
		R1:    uint8(bitsOf(raw, 29, 7)),
	}
}

// IFormat is the decoded field layout of an Integer-unit slot. Not
// individually detailed by spec.md §4.1 beyond naming the Integer unit
// class; shaped like MFormat's three-register-plus-completer layout since
// the Integer unit carries most non-memory, non-ALU arithmetic.
type IFormat struct {
	QP    uint8
	Major uint8
	X2    uint8
	X4    uint8
	R3    uint8
	R2    uint8
	R1    uint8
}

// DecodeIFormat extracts an IFormat from a 41-bit Integer-unit slot.
func DecodeIFormat(raw uint64) IFormat {
	return IFormat{
		QP:    qpOf(raw),
		Major: uint8(bitsOf(raw, 6, 8)),
		X2:    uint8(bitsOf(raw, 14, 2)),
		X4:    uint8(bitsOf(raw, 16, 2)),
		R3:    uint8(bitsOf(raw, 18, 7)),
		R2:    uint8(bitsOf(raw, 25, 7)),
		R1:    uint8(bitsOf(raw, 32, 7)),
	}
}

// LXFormat is the decoded field layout of a combined MLX long-immediate
// instruction (slot 1's L half and slot 2's X half taken together as the
// single logical unit spec.md §4.1 describes). r1 names the destination
// GR, this repo's own field assignment (spec.md §4.1 names the format but
// not a concrete bit layout) carved out of the X slot the same way
// decodeMemoryMajor packs its own major field, recorded in DESIGN.md. With
// this layout the immediate is 61 bits wide (41 from the L slot, 20 from
// the X slot) and fits entirely in ImmLo; ImmHi is always zero.
type LXFormat struct {
	QP    uint8
	Major uint8
	R1    uint8
	ImmLo uint64
	ImmHi uint8
}

// DecodeLXFormat extracts an LXFormat from an MLX bundle's L/X raw
// payload pair, as returned by Bundle.LongImmediate.
func DecodeLXFormat(lRaw, xRaw uint64) LXFormat {
	qp := qpOf(xRaw)
	major := uint8(bitsOf(xRaw, 6, 8))
	r1 := uint8(bitsOf(xRaw, 14, 7))
	// The L slot (41 bits) supplies the low immediate bits directly; the
	// X slot supplies 20 more immediate bits above qp+major+r1.
	xImmBits := bitsOf(xRaw, 21, 20)
	immLo := lRaw | (xImmBits << slotWidth)
	immHi := uint8(xImmBits >> (64 - slotWidth))
	return LXFormat{QP: qp, Major: major, R1: r1, ImmLo: immLo, ImmHi: immHi & 0xF}
}

// bitsOf masks out a width-bit field starting at bit start of a single
// 64-bit word (used once a slot's 41-bit payload is already isolated in
// its own uint64).
func bitsOf(word uint64, start, width uint) uint64 {
	return (word >> start) & ((1 << width) - 1)
}
