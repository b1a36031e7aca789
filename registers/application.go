package registers

import "github.com/paigeadelethompson/ia64emu/ia64err"

// ARCount is the size of the application-register index space, AR[0..128).
const ARCount = 128

// Named AR indices from spec.md §3.1. KR1..KR7 occupy AR[1..8); the
// remainder are scattered single slots or short runs.
const (
	ARKR1       = 1
	ARKR7       = 7
	ARRSC       = 16
	ARBSP       = 17
	ARBSPSTORE  = 18
	ARRNAT      = 19
	ARCCV       = 32
	ARUNAT      = 36
	ARFPSR      = 40
	ARITC       = 44
	ARPFD1      = 65
	ARPFD17     = 81
	ARPFC1      = 89
	ARPFC7      = 95
	ARCPUID1    = 97
	ARCPUID4    = 100
)

// arBank stores the application-register file. CPUID1..4 are read-only;
// every other index in range is a plain read/write slot.
type arBank struct {
	values [ARCount]uint64
}

func newARBank() arBank {
	return arBank{}
}

func isCPUID(index int) bool {
	return index >= ARCPUID1 && index <= ARCPUID4
}

// AR reads an application register.
func (b *Bank) AR(index int) (uint64, error) {
	if index < 0 || index >= ARCount {
		return 0, ia64err.NewRegisterError("AR", index, "index out of range")
	}
	return b.ar.values[index], nil
}

// SetAR writes an application register. CPUID1..4 reject the write with a
// read-only RegisterError, per spec.md §4.2.
func (b *Bank) SetAR(index int, value uint64) error {
	if index < 0 || index >= ARCount {
		return ia64err.NewRegisterError("AR", index, "index out of range")
	}
	if isCPUID(index) {
		return ia64err.NewRegisterError("AR", index, "CPUID registers are read-only")
	}
	b.ar.values[index] = value
	return nil
}

// SeedCPUID installs a CPUID value directly, bypassing the read-only
// write guard. Intended for use by the driver at boot time only.
func (b *Bank) SeedCPUID(index int, value uint64) error {
	if !isCPUID(index) {
		return ia64err.NewRegisterError("AR", index, "not a CPUID register")
	}
	b.ar.values[index] = value
	return nil
}
