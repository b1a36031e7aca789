// Package cpu aggregates every subsystem — register banks, the memory
// manager, the ALAT, the Register Stack Engine, the interrupt controller,
// and the syscall shell — into the single processor object the decoder's
// instructions execute against. Structured the way the teacher's emu
// package wires its own per-unit structs (ALU, BranchUnit, ...) around a
// shared *RegFile, generalised here to one Core shared by every unit.
package cpu

import (
	"github.com/paigeadelethompson/ia64emu/alat"
	"github.com/paigeadelethompson/ia64emu/decoder"
	"github.com/paigeadelethompson/ia64emu/ia64err"
	"github.com/paigeadelethompson/ia64emu/memory"
	"github.com/paigeadelethompson/ia64emu/registers"
	"github.com/paigeadelethompson/ia64emu/rse"
)

// Core is the processor aggregate: the sole mutator of every piece of
// architectural state, per spec.md §5's single-threaded, no-shared-state
// model.
type Core struct {
	Registers *registers.Bank
	Memory    *memory.Manager
	ALAT      *alat.Table
	RSE       *rse.Engine
	Interrupt *InterruptController
	Syscalls  *SyscallManager

	ip uint64
}

// New builds a Core with a fresh register bank, an empty memory manager,
// an empty ALAT, an RSE engine backed by the given backing-store base, and
// a disabled interrupt controller.
func New(rseBase uint64, rseInvalidCount uint32) *Core {
	return &Core{
		Registers: registers.NewBank(),
		Memory:    memory.New(),
		ALAT:      alat.New(),
		RSE:       rse.New(rseBase, rseInvalidCount),
		Interrupt: NewInterruptController(),
		Syscalls:  NewSyscallManager(nil),
		ip:        0,
	}
}

// IP returns the current instruction pointer.
func (c *Core) IP() uint64 { return c.ip }

// SetIP overwrites the instruction pointer, as a taken branch or an
// interrupt dispatch does.
func (c *Core) SetIP(ip uint64) { c.ip = ip }

// AdvanceIP moves the instruction pointer to the next bundle (16 bytes).
func (c *Core) AdvanceIP() { c.ip += 16 }

// predicated reports whether an instruction carrying qp should execute:
// spec.md §4.7 requires PR[qp] to be the *first* thing evaluated, and
// forbids observing operand registers at all when it is false. Every
// dispatcher in this package calls this before touching any other
// register, so a predicated-false instruction never reads its operands.
func (c *Core) predicated(qp uint8) (bool, error) {
	take, err := c.Registers.PR(int(qp))
	if err != nil {
		return false, err
	}
	return take, nil
}

// gr reads a general register, translating an out-of-range index into a
// RegisterError the same way every other accessor in this package does.
func (c *Core) gr(index uint8) (uint64, error) {
	return c.Registers.GR(int(index))
}

func (c *Core) setGR(index uint8, value uint64) error {
	return c.Registers.SetGR(int(index), value)
}

func (c *Core) setPR(index uint8, value bool) error {
	return c.Registers.SetPR(int(index), value)
}

func (c *Core) pr(index uint8) (bool, error) {
	return c.Registers.PR(int(index))
}

func (c *Core) br(index uint8) (uint64, error) {
	return c.Registers.BR(int(index))
}

func (c *Core) setBR(index uint8, value uint64) error {
	return c.Registers.SetBR(int(index), value)
}

// Execute dispatches a single decoded instruction, gating on its
// qualifying predicate first. A false predicate returns nil with no
// further state change, per spec.md §4.7.
func (c *Core) Execute(in decoder.Instruction) error {
	take, err := c.predicated(in.QP())
	if err != nil {
		return err
	}
	if !take {
		return nil
	}

	switch in.Kind {
	case decoder.KindALU:
		return c.executeALU(in.ALU)
	case decoder.KindInteger:
		return c.executeInteger(in.Integer)
	case decoder.KindMemory:
		return c.executeMemory(in.Memory)
	case decoder.KindBranch:
		return c.executeBranch(in.Branch)
	case decoder.KindFloating:
		return c.executeFloating(in.Floating)
	case decoder.KindLongImmediate:
		return c.executeLongImmediate(in.LongImmediate)
	default:
		return ia64err.NewExecutionError("unrecognised instruction kind")
	}
}

// executeFloating models only a register move: it copies the raw bits of
// FR[f.R2] into FR[f.R1]. No floating-point arithmetic or compare is
// performed, and the Major, SF and R3 fields are not consulted.
func (c *Core) executeFloating(f decoder.FFormat) error {
	r2, err := c.Registers.FR(int(f.R2))
	if err != nil {
		return err
	}
	return c.Registers.SetFR(int(f.R1), r2)
}

// executeLongImmediate materialises the combined MLX immediate into the
// destination GR named by lx.R1. Only the low 64 bits are written; the
// high nibble (lx.ImmHi) is discarded, matching the "host f64/u64"
// simplification spec.md §1 permits for anything beyond the four named
// subsystems.
func (c *Core) executeLongImmediate(lx decoder.LXFormat) error {
	return c.setGR(lx.R1, lx.ImmLo)
}
