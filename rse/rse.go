// Package rse implements the Register Stack Engine: the demand-driven
// spill/fill bookkeeping that backs the rotating general-register window
// with a linear in-memory backing store, interleaving an RNAT collection
// word every 64 stored slots.
package rse

import (
	"github.com/paigeadelethompson/ia64emu/ia64err"
)

// Mode is the RSE's eviction policy, packed into the RSC image's mode
// sub-field. The numeric values follow the source emulator's own
// to_bits/from_bits mapping (0=Enforced, 1=Eager, 2=Lazy) so a round-trip
// through SetConfig/Config and ToBits/FromBits reproduces the same bits.
type Mode uint8

// The three RSE operating modes.
const (
	ModeEnforced Mode = iota
	ModeEager
	ModeLazy
)

// Order is the load/store ordering completer.
type Order uint8

// The two load/store orderings.
const (
	OrderPreserve Order = iota
	OrderRelease
)

// Config is the decoded RSE configuration packed into the RSC application
// register: mode at bits 16..18, order at bit 18, store/load intensity at
// bits 19..23 and 23..27.
type Config struct {
	Mode           Mode
	Order          Order
	StoreIntensity uint8
	LoadIntensity  uint8
}

// ConfigFromBits decodes a Config from an RSC register image.
func ConfigFromBits(bits uint64) Config {
	mode := ModeLazy
	switch (bits >> 16) & 0x3 {
	case 0:
		mode = ModeEnforced
	case 1:
		mode = ModeEager
	case 2:
		mode = ModeLazy
	}
	order := OrderPreserve
	if (bits>>18)&1 != 0 {
		order = OrderRelease
	}
	return Config{
		Mode:           mode,
		Order:          order,
		StoreIntensity: uint8((bits >> 19) & 0xF),
		LoadIntensity:  uint8((bits >> 23) & 0xF),
	}
}

// ToBits re-packs a Config into an RSC register image.
func (c Config) ToBits() uint64 {
	var modeBits uint64
	switch c.Mode {
	case ModeEnforced:
		modeBits = 0
	case ModeEager:
		modeBits = 1
	case ModeLazy:
		modeBits = 2
	}
	var orderBit uint64
	if c.Order == OrderRelease {
		orderBit = 1
	}
	return (modeBits << 16) | (orderBit << 18) |
		(uint64(c.StoreIntensity) << 19) | (uint64(c.LoadIntensity) << 23)
}

// Memory is the minimal backing-store access the engine needs. A
// *memory.Manager satisfies it.
type Memory interface {
	WriteUint64(addr uint64, value uint64) error
	ReadUint64(addr uint64) (uint64, error)
}

// crossoverMask selects the low 6 bits of a slot index: a stored register
// at this position in its 64-slot group is followed by an RNAT word.
const crossoverMask = 0x3F

// Engine is the Register Stack Engine state: backing-store pointers, the
// dirty/clean/invalid register counts, the current RNAT cache word, and
// configuration.
type Engine struct {
	Config Config

	bsp      uint64
	bspstore uint64
	rnat     uint64

	dirty   uint32
	clean   uint32
	invalid uint32
}

// New returns an Engine with its backing-store pointers at base and all
// registers initially Invalid.
func New(base uint64, invalidCount uint32) *Engine {
	return &Engine{
		bsp:      base,
		bspstore: base,
		invalid:  invalidCount,
	}
}

// BSP returns the current fill pointer.
func (e *Engine) BSP() uint64 { return e.bsp }

// BSPStore returns the current spill pointer.
func (e *Engine) BSPStore() uint64 { return e.bspstore }

// RNAT returns the current NaT-collection cache word.
func (e *Engine) RNAT() uint64 { return e.rnat }

// SetRNAT overwrites the NaT-collection cache word (used when restoring
// saved processor state).
func (e *Engine) SetRNAT(v uint64) { e.rnat = v }

// Counts returns the current (dirty, clean, invalid) register counts.
func (e *Engine) Counts() (dirty, clean, invalid uint32) {
	return e.dirty, e.clean, e.invalid
}

// writeSpillSlots performs the raw backing-store write mechanics for
// len(values) registers — advancing bspstore and interleaving an RNAT
// word every 64th slot — without touching the dirty/clean/invalid
// counts. Spill and Deallocate each apply their own count bookkeeping on
// top of this shared mechanism.
func (e *Engine) writeSpillSlots(mem Memory, values []uint64, natBits []bool) error {
	for i, v := range values {
		if err := mem.WriteUint64(e.bspstore, v); err != nil {
			return err
		}
		if natBits != nil && natBits[i] {
			e.rnat |= 1 << ((e.bspstore >> 3) & crossoverMask)
		} else {
			e.rnat &^= 1 << ((e.bspstore >> 3) & crossoverMask)
		}

		if (e.bspstore>>3)&crossoverMask == crossoverMask {
			if err := mem.WriteUint64(e.bspstore+8, e.rnat); err != nil {
				return err
			}
			e.bspstore += 16
		} else {
			e.bspstore += 8
		}
	}
	return nil
}

// Spill writes len(values) dirty registers to the backing store, advancing
// bspstore and interleaving an RNAT word every 64th slot, and transitions
// each spilled register from dirty to clean. Fails if more registers are
// requested than are currently dirty.
func (e *Engine) Spill(mem Memory, values []uint64, natBits []bool) error {
	count := uint32(len(values))
	if count > e.dirty {
		return ia64err.NewRSEError("not enough dirty registers to spill")
	}
	if err := e.writeSpillSlots(mem, values, natBits); err != nil {
		return err
	}
	e.dirty -= count
	e.clean += count
	return nil
}

// Fill reads count invalid registers from the backing store, advancing
// bsp and refreshing the RNAT cache every 64th slot crossed. Fails if more
// registers are requested than are currently invalid.
func (e *Engine) Fill(mem Memory, count uint32) (values []uint64, natBits []bool, err error) {
	if count > e.invalid {
		return nil, nil, ia64err.NewRSEError("not enough invalid registers to fill")
	}

	values = make([]uint64, 0, count)
	natBits = make([]bool, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := mem.ReadUint64(e.bsp)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
		natBits = append(natBits, (e.rnat>>((e.bsp>>3)&crossoverMask))&1 != 0)

		if (e.bsp>>3)&crossoverMask == crossoverMask {
			rnat, err := mem.ReadUint64(e.bsp + 8)
			if err != nil {
				return nil, nil, err
			}
			e.rnat = rnat
			e.bsp += 16
		} else {
			e.bsp += 8
		}

		e.invalid--
		e.clean++
	}
	return values, natBits, nil
}

// Flush spills every currently-dirty register.
func (e *Engine) Flush(mem Memory, values []uint64, natBits []bool) error {
	return e.Spill(mem, values, natBits)
}

// Invalidate transitions every clean register to invalid, as happens on a
// call that tears down the callee's visible window.
func (e *Engine) Invalidate() {
	e.invalid += e.clean
	e.clean = 0
}

// Allocate grows the dirty set by count, consuming clean registers first
// and then invalid ones. Fails if clean+invalid cannot cover count.
func (e *Engine) Allocate(count uint32) error {
	fromClean := count
	if e.clean < fromClean {
		fromClean = e.clean
	}
	e.clean -= fromClean
	e.dirty += fromClean

	remaining := count - fromClean
	if remaining == 0 {
		return nil
	}
	if remaining > e.invalid {
		// Undo the clean consumption so the engine is left unchanged on
		// failure.
		e.clean += fromClean
		e.dirty -= fromClean
		return ia64err.NewRSEError("not enough registers available to allocate")
	}
	e.invalid -= remaining
	e.dirty += remaining
	return nil
}

// Deallocate shrinks the dirty/clean sets by count registers according to
// the engine's configured Mode, spilling through mem wherever the mode
// demands it. values/natBits supply the content of whatever dirty
// registers this call needs to spill; callers size them to e.dirty (the
// maximum Spill could possibly consume in Enforced mode) and the engine
// uses only as many as each mode requires.
func (e *Engine) Deallocate(mem Memory, count uint32, values []uint64, natBits []bool) error {
	switch e.Config.Mode {
	case ModeLazy:
		spilled := count
		if e.dirty < spilled {
			spilled = e.dirty
		}
		e.dirty -= spilled
		overflow := count - spilled
		if e.clean < overflow {
			overflow = e.clean
		}
		e.clean -= overflow
		e.invalid += count

	case ModeEager:
		toSpill := count
		if e.dirty < toSpill {
			toSpill = e.dirty
		}
		if toSpill > 0 {
			if err := e.writeSpillSlots(mem, values[:toSpill], slice(natBits, toSpill)); err != nil {
				return err
			}
		}
		e.dirty -= toSpill
		remaining := count - toSpill
		if e.clean < remaining {
			remaining = e.clean
		}
		e.clean -= remaining
		e.invalid += count

	case ModeEnforced:
		spilled := e.dirty
		if spilled > 0 {
			if err := e.writeSpillSlots(mem, values[:spilled], slice(natBits, spilled)); err != nil {
				return err
			}
		}
		e.dirty = 0
		var overflow uint32
		if count > spilled {
			overflow = count - spilled
		}
		if e.clean < overflow {
			overflow = e.clean
		}
		e.clean -= overflow
		e.invalid += count
	}
	return nil
}

func slice(s []bool, n uint32) []bool {
	if s == nil {
		return nil
	}
	return s[:n]
}
