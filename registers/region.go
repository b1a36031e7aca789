package registers

import "github.com/paigeadelethompson/ia64emu/ia64err"

const (
	// RRCount is the number of region registers, RR[0..8).
	RRCount = 8
	// PKRCount is the number of protection-key registers, PKR[0..16).
	PKRCount = 16
	// DBRCount is the number of debug-break registers, DBR[0..8).
	DBRCount = 8
	// DDRCount is the number of debug-data registers, DDR[0..8).
	DDRCount = 8
)

// Each of RR/PKR/DBR/DDR is stored as a raw uint64 image in Bank and
// decoded/encoded through the From/To pair below on every access, the
// shape original_source/src/cpu/registers/{rr,pkr,dbr,ddr}.rs use.

// RR is a region register's decoded fields: a region id, a page-size
// exponent byte, and a virtual-region-enable bit.
type RR struct {
	RID uint64
	PS  uint8
	VE  bool
}

// RRFromBits decodes a raw region-register image.
func RRFromBits(bits uint64) RR {
	return RR{
		RID: bits & 0xFFFF_FFFF_FFFF_FFFF,
		PS:  uint8(bits >> 56),
		VE:  (bits >> 63) != 0,
	}
}

// ToBits encodes a region register back into its raw image.
func (r RR) ToBits() uint64 {
	bits := r.RID
	bits |= uint64(r.PS) << 56
	if r.VE {
		bits |= 1 << 63
	}
	return bits
}

// RegionRegister reads a region register's decoded fields.
func (b *Bank) RegionRegister(index int) (RR, error) {
	if index < 0 || index >= RRCount {
		return RR{}, ia64err.NewRegisterError("RR", index, "index out of range")
	}
	return RRFromBits(b.rr[index]), nil
}

// SetRegionRegister writes a region register.
func (b *Bank) SetRegionRegister(index int, fields RR) error {
	if index < 0 || index >= RRCount {
		return ia64err.NewRegisterError("RR", index, "index out of range")
	}
	b.rr[index] = fields.ToBits()
	return nil
}

// PKR is a protection-key register's decoded fields, spec.md §3.1.
type PKR struct {
	Key uint32
	V   bool
	WD  bool
	RD  bool
	XD  bool
}

// PKRFromBits decodes a raw protection-key-register image.
func PKRFromBits(bits uint64) PKR {
	return PKR{
		Key: uint32(bits & 0xFFFF_FFFF),
		V:   (bits>>32)&1 != 0,
		WD:  (bits>>33)&1 != 0,
		RD:  (bits>>34)&1 != 0,
		XD:  (bits>>35)&1 != 0,
	}
}

// ToBits encodes a protection-key register back into its raw image.
func (k PKR) ToBits() uint64 {
	bits := uint64(k.Key)
	if k.V {
		bits |= 1 << 32
	}
	if k.WD {
		bits |= 1 << 33
	}
	if k.RD {
		bits |= 1 << 34
	}
	if k.XD {
		bits |= 1 << 35
	}
	return bits
}

// CanRead reports whether this key entry permits a read.
func (k PKR) CanRead() bool { return k.V && !k.RD }

// CanWrite reports whether this key entry permits a write.
func (k PKR) CanWrite() bool { return k.V && !k.WD }

// CanExecute reports whether this key entry permits an execute.
func (k PKR) CanExecute() bool { return k.V && !k.XD }

// ProtectionKey reads a protection-key register.
func (b *Bank) ProtectionKey(index int) (PKR, error) {
	if index < 0 || index >= PKRCount {
		return PKR{}, ia64err.NewRegisterError("PKR", index, "index out of range")
	}
	return PKRFromBits(b.pkr[index]), nil
}

// SetProtectionKey writes a protection-key register.
func (b *Bank) SetProtectionKey(index int, fields PKR) error {
	if index < 0 || index >= PKRCount {
		return ia64err.NewRegisterError("PKR", index, "index out of range")
	}
	b.pkr[index] = fields.ToBits()
	return nil
}

// CheckKey composes the can_read/can_write/can_execute bits across every
// PKR entry whose Key matches k and is Valid (linear lookup, first match
// wins per spec.md §3.1), demanding all of the requested accesses be
// granted by that single entry.
func (b *Bank) CheckKey(k uint32, wantRead, wantWrite, wantExecute bool) bool {
	for _, raw := range b.pkr {
		entry := PKRFromBits(raw)
		if !entry.V || entry.Key != k {
			continue
		}
		if wantRead && !entry.CanRead() {
			return false
		}
		if wantWrite && !entry.CanWrite() {
			return false
		}
		if wantExecute && !entry.CanExecute() {
			return false
		}
		return true
	}
	return false
}

// dbrAddrMask restricts the packed address field to bits 12..48, per
// spec.md §3.1 — unlike original_source/src/cpu/registers/dbr.rs, which
// masks bits 12..64 and so overlaps the mask/r/w/x/plm/ig fields packed
// into the same word above bit 48. Narrowing to 12..48 removes that
// overlap.
const dbrAddrMask uint64 = 0x0000_FFFF_FFFF_F000

// DBR is a debug-break register's decoded fields, spec.md §3.1.
type DBR struct {
	Addr uint64
	Mask uint8
	R    bool
	W    bool
	X    bool
	PLM  uint8
	IG   bool
}

// DBRFromBits decodes a raw debug-break-register image.
func DBRFromBits(bits uint64) DBR {
	return DBR{
		Addr: bits & dbrAddrMask,
		Mask: uint8((bits >> 48) & 0xFF),
		R:    (bits>>56)&1 != 0,
		W:    (bits>>57)&1 != 0,
		X:    (bits>>58)&1 != 0,
		PLM:  uint8((bits >> 59) & 0xF),
		IG:   (bits>>63)&1 != 0,
	}
}

// ToBits encodes a debug-break register back into its raw image.
func (d DBR) ToBits() uint64 {
	bits := d.Addr & dbrAddrMask
	bits |= uint64(d.Mask) << 48
	if d.R {
		bits |= 1 << 56
	}
	if d.W {
		bits |= 1 << 57
	}
	if d.X {
		bits |= 1 << 58
	}
	bits |= uint64(d.PLM&0xF) << 59
	if d.IG {
		bits |= 1 << 63
	}
	return bits
}

// AccessType names the kind of access a break register is checked against.
type AccessType int

// The three access kinds a DBR can gate.
const (
	AccessRead AccessType = iota
	AccessWrite
	AccessExecute
)

// Matches implements the DBR match rule from spec.md §3.1: the current
// privilege level must be named in PLM, the access type named by kind must
// be enabled, and target must agree with Addr outside the masked range.
func (d DBR) Matches(target uint64, pl uint8, kind AccessType) bool {
	if d.PLM&(1<<pl) == 0 {
		return false
	}
	switch kind {
	case AccessRead:
		if !d.R {
			return false
		}
	case AccessWrite:
		if !d.W {
			return false
		}
	case AccessExecute:
		if !d.X {
			return false
		}
	}
	invMask := ^(uint64(d.Mask) << 48)
	return (d.Addr & invMask) == (target & invMask)
}

// DebugBreak reads a debug-break register.
func (b *Bank) DebugBreak(index int) (DBR, error) {
	if index < 0 || index >= DBRCount {
		return DBR{}, ia64err.NewRegisterError("DBR", index, "index out of range")
	}
	return DBRFromBits(b.dbr[index]), nil
}

// SetDebugBreak writes a debug-break register.
func (b *Bank) SetDebugBreak(index int, fields DBR) error {
	if index < 0 || index >= DBRCount {
		return ia64err.NewRegisterError("DBR", index, "index out of range")
	}
	b.dbr[index] = fields.ToBits()
	return nil
}

// DDR is a debug-data register's decoded fields, spec.md §3.1.
type DDR struct {
	Data uint64
	Mask uint8
}

// DDRFromBits decodes a raw debug-data-register image.
func DDRFromBits(bits uint64) DDR {
	return DDR{
		Data: bits,
		Mask: uint8((bits >> 56) & 0xFF),
	}
}

// ToBits encodes a debug-data register back into its raw image.
func (d DDR) ToBits() uint64 {
	return (d.Data &^ (uint64(0xFF) << 56)) | (uint64(d.Mask) << 56)
}

// Matches implements the DDR match rule: value must agree with Data
// outside the masked byte range.
func (d DDR) Matches(value uint64) bool {
	invMask := ^(uint64(d.Mask) << 56)
	return (value & invMask) == (d.Data & invMask)
}

// DebugData reads a debug-data register.
func (b *Bank) DebugData(index int) (DDR, error) {
	if index < 0 || index >= DDRCount {
		return DDR{}, ia64err.NewRegisterError("DDR", index, "index out of range")
	}
	return DDRFromBits(b.ddr[index]), nil
}

// SetDebugData writes a debug-data register.
func (b *Bank) SetDebugData(index int, fields DDR) error {
	if index < 0 || index >= DDRCount {
		return ia64err.NewRegisterError("DDR", index, "index out of range")
	}
	b.ddr[index] = fields.ToBits()
	return nil
}
