package cpu

import (
	"github.com/paigeadelethompson/ia64emu/decoder"
	"github.com/paigeadelethompson/ia64emu/ia64err"
	"github.com/paigeadelethompson/ia64emu/registers"
)

// signExtend20 sign-extends a 20-bit displacement (spec.md §4.1's
// "imm20") scaled by 16 bytes, the bundle width, matching the teacher's
// BranchUnit treatment of IP-relative targets as bundle-granular.
func signExtend20(imm uint32) uint64 {
	v := int64(imm&0xFFFFF) << 4
	if imm&0x80000 != 0 {
		v -= 1 << 24
	}
	return uint64(v)
}

// executeBranch dispatches a Branch-unit slot. BFormat carries no
// explicit register-index field the way the Memory/ALU formats do
// (spec.md §4.1 names only major/btype/wh/d/imm20/p for this format), so
// this repo packs the two register indices a BranchCall needs into Major:
// the low 3 bits name the source BR for indirect targets, the next 3
// bits name the link-save destination BR for a plain call. This
// convention is recorded in DESIGN.md.
func (c *Core) executeBranch(f decoder.BFormat) error {
	switch f.BType {
	case decoder.BranchCond:
		c.ip = c.ip + signExtend20(f.Imm20)
		return nil

	case decoder.BranchCall:
		srcBR := f.Major & 0x7
		target, err := c.br(srcBR)
		if err != nil {
			return err
		}
		if f.Dealloc() {
			return c.executeReturn(target)
		}
		linkBR := (f.Major >> 3) & 0x7
		if err := c.setBR(linkBR, c.ip+16); err != nil {
			return err
		}
		c.ip = target
		return nil

	default:
		return ia64err.NewDecodeError("unrecognised branch type")
	}
}

// executeReturn implements spec.md §4.4's Return operation: restore the
// prior frame from PFS, deallocate the current frame's sof registers
// through the RSE (spilling whatever the configured mode demands), and
// set IP to target.
func (c *Core) executeReturn(target uint64) error {
	pfs := c.Registers.PFS()
	cfm := c.Registers.CFM()

	if cfm.SOF > 0 {
		dirty, _, _ := c.RSE.Counts()
		placeholder := make([]uint64, dirty)
		if err := c.RSE.Deallocate(c.Memory, uint32(cfm.SOF), placeholder, nil); err != nil {
			return err
		}
	}
	if err := c.Registers.SetCFM(pfs); err != nil {
		return err
	}
	c.ip = target
	return nil
}

// AllocateFrame implements spec.md §4.4's "Branch with alloc": the delta
// between the new and old sof drives an RSE allocate (growing) or
// deallocate (shrinking), after which CFM is overwritten with the new
// frame marker. Not reachable through the decoded instruction stream
// (no format in this decoder carries three 7-bit frame-size fields), so
// it is exposed directly for a driver or test to call, matching the
// other executor-layer gaps DESIGN.md records.
func (c *Core) AllocateFrame(newSOF, newSOL, newSOR uint8) error {
	old := c.Registers.CFM()
	delta := int(newSOF) - int(old.SOF)

	switch {
	case delta > 0:
		if err := c.RSE.Allocate(uint32(delta)); err != nil {
			return err
		}
	case delta < 0:
		dirty, _, _ := c.RSE.Counts()
		placeholder := make([]uint64, dirty)
		if err := c.RSE.Deallocate(c.Memory, uint32(-delta), placeholder, nil); err != nil {
			return err
		}
	}

	return c.Registers.SetCFM(registers.FrameMarker{SOF: newSOF, SOL: newSOL, SOR: newSOR})
}
