package registers

import "github.com/paigeadelethompson/ia64emu/ia64err"

// CRCount is the size of the control-register index space, CR[0..128).
const CRCount = 128

// Named CR indices from spec.md §3.1.
const (
	CRPSR  = 0
	CRITM  = 1
	CRITV  = 2
	CRPTA  = 8
	CRISR  = 16
	CRIPSR = 17
	CRIFA  = 18
	CRITIR = 19
	CRIIPA = 20
	CRIFS  = 21
	CRIIM  = 22
	CRIHA  = 23
	CRIVA  = 24
	CRLID  = 64
	CRTPR  = 65
	CRIRR0 = 66
	CRIRR3 = 69
	CRITC  = 72
	CRPMV  = 73
	CRCMCV = 74
	CRLRR0 = 80
	CRLRR1 = 81
)

// PSRWritableMask is the set of PSR bits a plain CR write may change; bits
// 48..63 are reserved and always preserved regardless of the value
// written. spec.md §3.3 gives this mask as 0x0000_FFFF_FFFF_FFFF.
const PSRWritableMask uint64 = 0x0000_FFFF_FFFF_FFFF

// TPRWritableMask restricts TPR writes to the low 16 bits; bits 16 and
// above are always preserved from the prior value.
const TPRWritableMask uint64 = 0xFFFF

type crBank struct {
	values [CRCount]uint64
}

func newCRBank() crBank {
	return crBank{}
}

// CR reads a control register.
func (b *Bank) CR(index int) (uint64, error) {
	if index < 0 || index >= CRCount {
		return 0, ia64err.NewRegisterError("CR", index, "index out of range")
	}
	return b.cr.values[index], nil
}

// SetCR writes a control register, applying the PSR and TPR masking rules.
// Every other index is a plain overwrite.
func (b *Bank) SetCR(index int, value uint64) error {
	if index < 0 || index >= CRCount {
		return ia64err.NewRegisterError("CR", index, "index out of range")
	}
	switch index {
	case CRPSR:
		current := b.cr.values[CRPSR]
		b.cr.values[CRPSR] = (current &^ PSRWritableMask) | (value & PSRWritableMask)
	case CRTPR:
		current := b.cr.values[CRTPR]
		b.cr.values[CRTPR] = (current &^ TPRWritableMask) | (value & TPRWritableMask)
	default:
		b.cr.values[index] = value
	}
	return nil
}

// PSR returns the current PSR value (a convenience over CR(CRPSR)).
func (b *Bank) PSR() uint64 {
	return b.cr.values[CRPSR]
}

// SetPSRBits sets (mask) or clears (!mask) the bits named by bits in the
// PSR's writable region, the shape sum/rum/xum need: sum sets bits, rum
// clears them, xum overwrites them wholesale. set controls whether the
// named bits are asserted or cleared; bits outside UserMask are untouched
// by sum/rum (they operate only within the documented user mask).
func (b *Bank) SetPSRBits(bits uint64, set bool) {
	current := b.cr.values[CRPSR]
	if set {
		b.cr.values[CRPSR] = current | (bits & UserMask)
	} else {
		b.cr.values[CRPSR] = current &^ (bits & UserMask)
	}
}
