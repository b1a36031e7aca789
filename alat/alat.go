// Package alat implements the Advanced Load Address Table: the structure
// that backs data speculation by recording which registers hold the result
// of an advanced load, and invalidating that record when a later store
// touches the same memory.
package alat

import (
	"fmt"

	"github.com/paigeadelethompson/ia64emu/ia64err"
)

// EntryState is the lifecycle state of a single ALAT entry.
type EntryState uint8

// The three states an entry moves through.
const (
	StateInvalid EntryState = iota
	StateValid
	StateInvalidated
)

// granule is the alignment ALAT overlap tracking is granular to: advanced
// loads are tracked at 8-byte resolution regardless of the load's own size.
const granule = 8

// capacity is the maximum number of live entries; the oldest is evicted
// first when a new entry would exceed it.
const capacity = 32

// entry is one tracked advanced load.
type entry struct {
	address   uint64
	size      uint64
	register  uint32
	isInteger bool
	state     EntryState
}

// overlaps reports whether the raw access range [addr, addr+size) touches
// this entry's 8-byte-aligned granule. Only the entry side is aligned down;
// the access range is taken as given, so a multi-byte or granule-straddling
// store that merely reaches into an aligned granule still invalidates it.
// The boundary comparisons are inclusive: a store landing exactly on a
// granule edge is still treated as aliasing that granule, not as a clean
// miss, matching the overlap_invalidation scenario where a 16-byte store
// starting immediately after one entry's granule still invalidates it.
func (e *entry) overlaps(addr, size uint64) bool {
	if e.state != StateValid {
		return false
	}
	entryAligned := e.address &^ (granule - 1)
	entryEnd := entryAligned + granule
	accessEnd := addr + size
	return addr <= entryEnd && entryAligned <= accessEnd
}

// Table is the Advanced Load Address Table: an insertion-ordered, bounded
// set of entries keyed by (register, isInteger).
type Table struct {
	entries []entry
}

// New returns an empty ALAT with capacity pre-reserved.
func New() *Table {
	return &Table{entries: make([]entry, 0, capacity)}
}

// Add records an advanced load. Any existing entry for the same
// (register, isInteger) pair is removed first, regardless of its state;
// if the table is already at capacity the oldest entry is evicted.
func (t *Table) Add(address, size uint64, register uint32, isInteger bool) {
	t.removeMatching(register, isInteger)

	if len(t.entries) >= capacity {
		t.entries = t.entries[1:]
	}
	t.entries = append(t.entries, entry{
		address:   address,
		size:      size,
		register:  register,
		isInteger: isInteger,
		state:     StateValid,
	})
}

func (t *Table) removeMatching(register uint32, isInteger bool) {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.register == register && e.isInteger == isInteger {
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
}

func (t *Table) find(register uint32, isInteger bool) *entry {
	for i := range t.entries {
		if t.entries[i].register == register && t.entries[i].isInteger == isInteger {
			return &t.entries[i]
		}
	}
	return nil
}

// CheckRegister reports whether register holds the result of an advanced
// load that is still Valid.
func (t *Table) CheckRegister(register uint32, isInteger bool) bool {
	e := t.find(register, isInteger)
	return e != nil && e.state == StateValid
}

// CheckAddress reports whether any Valid entry's 8-byte-aligned granule
// overlaps the given access.
func (t *Table) CheckAddress(address, size uint64) bool {
	for i := range t.entries {
		if t.entries[i].overlaps(address, size) {
			return true
		}
	}
	return false
}

// InvalidateOverlap transitions every Valid entry whose 8-byte-aligned
// granule touches the raw access range [address, address+size) to
// Invalidated, so a multi-byte or granule-straddling store that only
// partially reaches into an entry's granule, or lands exactly on its edge,
// still invalidates it.
func (t *Table) InvalidateOverlap(address, size uint64) {
	for i := range t.entries {
		if t.entries[i].overlaps(address, size) {
			t.entries[i].state = StateInvalidated
		}
	}
}

// InvalidateRegister transitions every entry for (register, isInteger),
// regardless of current state, to Invalid.
func (t *Table) InvalidateRegister(register uint32, isInteger bool) {
	for i := range t.entries {
		if t.entries[i].register == register && t.entries[i].isInteger == isInteger {
			t.entries[i].state = StateInvalid
		}
	}
}

// UpdateState sets the state of the entry for (register, isInteger).
// Returns an error if no such entry exists.
func (t *Table) UpdateState(register uint32, isInteger bool, state EntryState) error {
	e := t.find(register, isInteger)
	if e == nil {
		kind := "float"
		if isInteger {
			kind = "integer"
		}
		return ia64err.NewExecutionError(fmt.Sprintf("no ALAT entry for register %d (%s)", register, kind))
	}
	e.state = state
	return nil
}

// EntryInfo returns the address, size, and state of the entry for
// (register, isInteger), and whether one exists.
func (t *Table) EntryInfo(register uint32, isInteger bool) (address, size uint64, state EntryState, ok bool) {
	e := t.find(register, isInteger)
	if e == nil {
		return 0, 0, StateInvalid, false
	}
	return e.address, e.size, e.state, true
}

// RemoveEntry drops the entry for (register, isInteger) entirely.
func (t *Table) RemoveEntry(register uint32, isInteger bool) {
	t.removeMatching(register, isInteger)
}

// Clear drops every entry.
func (t *Table) Clear() {
	t.entries = t.entries[:0]
}

// ValidEntries returns the number of entries currently Valid.
func (t *Table) ValidEntries() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].state == StateValid {
			n++
		}
	}
	return n
}

// PurgeOld drops every non-Valid entry, then trims from the front (oldest)
// until at most capacity entries remain. Idempotent: a second call with no
// intervening mutation leaves the table unchanged.
func (t *Table) PurgeOld() {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.state == StateValid {
			kept = append(kept, e)
		}
	}
	t.entries = kept

	for len(t.entries) > capacity {
		t.entries = t.entries[1:]
	}
}
