package registers

import "github.com/paigeadelethompson/ia64emu/ia64err"

// FrameMarker packs the three 7-bit fields CFM and PFS both carry: size of
// frame (sof), size of locals (sol), size of rotating (sor). spec.md §3.2
// requires sof >= sol >= sor on every write.
type FrameMarker struct {
	SOF uint8
	SOL uint8
	SOR uint8
}

const frameFieldMask = 0x7F

// FrameMarkerFromBits decodes a packed frame-marker image: sof at bits
// 0..7, sol at 7..14, sor at 14..21.
func FrameMarkerFromBits(bits uint64) FrameMarker {
	return FrameMarker{
		SOF: uint8(bits & frameFieldMask),
		SOL: uint8((bits >> 7) & frameFieldMask),
		SOR: uint8((bits >> 14) & frameFieldMask),
	}
}

// ToBits encodes a frame marker back into its packed image.
func (f FrameMarker) ToBits() uint64 {
	return uint64(f.SOF&frameFieldMask) |
		uint64(f.SOL&frameFieldMask)<<7 |
		uint64(f.SOR&frameFieldMask)<<14
}

// valid reports whether the invariant sof >= sol >= sor holds.
func (f FrameMarker) valid() bool {
	return f.SOF >= f.SOL && f.SOL >= f.SOR
}

// CFM returns the current frame marker.
func (b *Bank) CFM() FrameMarker {
	return b.cfm
}

// SetCFM writes the current frame marker, rejecting the write if the
// sof >= sol >= sor invariant does not hold.
func (b *Bank) SetCFM(fm FrameMarker) error {
	if !fm.valid() {
		return ia64err.NewCPUStateError("CFM write violates sof >= sol >= sor")
	}
	b.cfm = fm
	return nil
}

// PFS returns the previous frame state's frame marker.
func (b *Bank) PFS() FrameMarker {
	return b.pfs
}

// SetPFS writes the previous frame state's frame marker, with the same
// invariant check as SetCFM.
func (b *Bank) SetPFS(fm FrameMarker) error {
	if !fm.valid() {
		return ia64err.NewCPUStateError("PFS write violates sof >= sol >= sor")
	}
	b.pfs = fm
	return nil
}
