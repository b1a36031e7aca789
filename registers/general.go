// Package registers models the IA-64 register banks: general, floating,
// predicate, branch, application, control, region, protection-key, and the
// two debug-register banks. Every bank enforces its declared capacity and
// returns a RegisterError on an out-of-range index, following the
// bounds-checked read/write shape of the teacher's emu.RegFile.
package registers

import "github.com/paigeadelethompson/ia64emu/ia64err"

const (
	// GRCount is the number of general registers, GR[0..128).
	GRCount = 128
	// FRCount is the number of floating registers, FR[0..128).
	FRCount = 128
	// PRCount is the number of predicate registers, PR[0..64).
	PRCount = 64
	// BRCount is the number of branch registers, BR[0..8).
	BRCount = 8
)

// Bank aggregates every IA-64 register file into a single owned value. The
// processor core holds one Bank and addresses it through the methods below;
// no subsystem reaches into another bank's storage directly.
type Bank struct {
	gr [GRCount]uint64
	fr [FRCount]uint64
	pr [PRCount]bool
	br [BRCount]uint64

	ar arBank
	cr crBank

	rr  [RRCount]uint64
	pkr [PKRCount]uint64
	dbr [DBRCount]uint64
	ddr [DDRCount]uint64

	cfm FrameMarker
	pfs FrameMarker
}

// NewBank constructs a Bank with PR[0] set true (architectural convention)
// and every other register zeroed.
func NewBank() *Bank {
	b := &Bank{}
	b.pr[0] = true
	b.ar = newARBank()
	b.cr = newCRBank()
	return b
}

// GR reads a general register. GR[0] always reads as zero.
func (b *Bank) GR(index int) (uint64, error) {
	if index < 0 || index >= GRCount {
		return 0, ia64err.NewRegisterError("GR", index, "index out of range")
	}
	return b.gr[index], nil
}

// SetGR writes a general register. Writes to GR[0] succeed silently
// without mutating state, matching the hard-wired-zero invariant.
func (b *Bank) SetGR(index int, value uint64) error {
	if index < 0 || index >= GRCount {
		return ia64err.NewRegisterError("GR", index, "index out of range")
	}
	if index == 0 {
		return nil
	}
	b.gr[index] = value
	return nil
}

// FR reads a floating register's raw 64-bit container.
func (b *Bank) FR(index int) (uint64, error) {
	if index < 0 || index >= FRCount {
		return 0, ia64err.NewRegisterError("FR", index, "index out of range")
	}
	return b.fr[index], nil
}

// SetFR writes a floating register's raw 64-bit container. Unlike GR[0],
// spec.md §4.2 only requires the implementation to enforce the GR[0]
// invariant; FR[0]/FR[1] are left writable here.
func (b *Bank) SetFR(index int, value uint64) error {
	if index < 0 || index >= FRCount {
		return ia64err.NewRegisterError("FR", index, "index out of range")
	}
	b.fr[index] = value
	return nil
}

// PR reads a predicate register.
func (b *Bank) PR(index int) (bool, error) {
	if index < 0 || index >= PRCount {
		return false, ia64err.NewRegisterError("PR", index, "index out of range")
	}
	return b.pr[index], nil
}

// SetPR writes a predicate register. PR[0] is conventionally true but is
// not hard-wired the way GR[0] is; the core never issues a SetPR(0, ...)
// during normal execution.
func (b *Bank) SetPR(index int, value bool) error {
	if index < 0 || index >= PRCount {
		return ia64err.NewRegisterError("PR", index, "index out of range")
	}
	b.pr[index] = value
	return nil
}

// BR reads a branch register.
func (b *Bank) BR(index int) (uint64, error) {
	if index < 0 || index >= BRCount {
		return 0, ia64err.NewRegisterError("BR", index, "index out of range")
	}
	return b.br[index], nil
}

// SetBR writes a branch register.
func (b *Bank) SetBR(index int, value uint64) error {
	if index < 0 || index >= BRCount {
		return ia64err.NewRegisterError("BR", index, "index out of range")
	}
	b.br[index] = value
	return nil
}
