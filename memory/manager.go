package memory

import (
	"encoding/binary"

	"github.com/paigeadelethompson/ia64emu/ia64err"
)

// SpeculativeStatus is the outcome of a tracked ld.s target, per spec.md
// §4.6's {Success, Failed, Cancelled} state machine.
type SpeculativeStatus uint8

// The three states a tracked speculative load can be in.
const (
	SpeculativeSuccess SpeculativeStatus = iota
	SpeculativeFailed
	SpeculativeCancelled
)

// speculativeLoad records the outcome of an ld.s at a given address, and
// the loaded bytes when it succeeded, so a later chk.s can recover the
// value without re-issuing the load.
type speculativeLoad struct {
	status SpeculativeStatus
	data   []byte
}

// Manager is the processor-visible memory aggregate: the mapped region
// set, the three-level cache hierarchy sitting in front of it, and the
// speculative-load tracking table ld.s/chk.s consult.
type Manager struct {
	regions *regionMap
	caches  *Hierarchy

	speculative map[uint64]speculativeLoad
}

// New returns an empty Manager with no mapped regions.
func New() *Manager {
	return &Manager{
		regions:     newRegionMap(),
		caches:      NewHierarchy(),
		speculative: make(map[uint64]speculativeLoad),
	}
}

// Map installs a new zero-filled region.
func (m *Manager) Map(base, size uint64, perm Permission) error {
	return m.regions.Map(base, size, perm)
}

// Unmap removes the region keyed at base, invalidating any cached lines
// that fell within it.
func (m *Manager) Unmap(base uint64) error {
	r, err := m.regions.Find(base)
	if err == nil && r.Base == base {
		for off := uint64(0); off < r.Size; off += 8 {
			m.caches.Invalidate(r.Base + off)
		}
	}
	return m.regions.Unmap(base)
}

// SetHint applies a cache-retention completer to subsequent accesses.
func (m *Manager) SetHint(hint Hint) { m.caches.SetHint(hint) }

// Fence is the memory-ordering fence. The emulator performs every access
// synchronously, so there is no reordering to constrain; it exists so
// callers can express mf without special-casing it.
func (m *Manager) Fence() {}

// FlushAll writes every dirty cache line back to its owning region and
// clears the Modified bit, per the mf.a / flush-all-caches family of
// operations.
func (m *Manager) FlushAll() error {
	for _, w := range m.caches.Flush() {
		if err := m.commit(w.Addr, w.Data); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) commit(addr uint64, data []byte) error {
	r, err := m.regions.Find(addr)
	if err != nil {
		return err
	}
	off := addr - r.Base
	copy(r.Bytes[off:off+uint64(len(data))], data)
	return nil
}

func (m *Manager) checkBounds(r *Region, addr uint64, size uint64) error {
	if addr < r.Base || addr+size > r.Base+r.Size {
		return ia64err.NewMemoryError(addr, "access crosses region boundary")
	}
	return nil
}

func (m *Manager) read(addr uint64, size int) ([]byte, error) {
	r, err := m.regions.Find(addr)
	if err != nil {
		return nil, err
	}
	if !r.Perm.CanRead() {
		return nil, ia64err.NewPrivilegeViolation("read of non-readable region")
	}
	if err := m.checkBounds(r, addr, uint64(size)); err != nil {
		return nil, err
	}

	if data, hit := m.caches.Read(addr, size); hit {
		return data, nil
	}

	off := addr - r.Base
	data := append([]byte(nil), r.Bytes[off:off+uint64(size)]...)
	m.caches.FillAll(addr, data)
	return data, nil
}

func (m *Manager) write(addr uint64, data []byte) error {
	r, err := m.regions.Find(addr)
	if err != nil {
		return err
	}
	if !r.Perm.CanWrite() {
		return ia64err.NewPrivilegeViolation("write to non-writable region")
	}
	if err := m.checkBounds(r, addr, uint64(len(data))); err != nil {
		return err
	}

	off := addr - r.Base
	copy(r.Bytes[off:off+uint64(len(data))], data)

	for _, w := range m.caches.Write(addr, data) {
		if w.Addr != addr {
			if err := m.commit(w.Addr, w.Data); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadUint8 loads a single byte.
func (m *Manager) ReadUint8(addr uint64) (uint8, error) {
	data, err := m.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// WriteUint8 stores a single byte.
func (m *Manager) WriteUint8(addr uint64, value uint8) error {
	return m.write(addr, []byte{value})
}

// ReadUint16 loads a little-endian halfword.
func (m *Manager) ReadUint16(addr uint64) (uint16, error) {
	data, err := m.read(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// WriteUint16 stores a little-endian halfword.
func (m *Manager) WriteUint16(addr uint64, value uint16) error {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, value)
	return m.write(addr, buf)
}

// ReadUint32 loads a little-endian word.
func (m *Manager) ReadUint32(addr uint64) (uint32, error) {
	data, err := m.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// WriteUint32 stores a little-endian word.
func (m *Manager) WriteUint32(addr uint64, value uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, value)
	return m.write(addr, buf)
}

// ReadUint64 loads a little-endian doubleword. Satisfies rse.Memory.
func (m *Manager) ReadUint64(addr uint64) (uint64, error) {
	data, err := m.read(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// WriteUint64 stores a little-endian doubleword. Satisfies rse.Memory.
func (m *Manager) WriteUint64(addr uint64, value uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	return m.write(addr, buf)
}

// ReadBytes loads an arbitrary-length little-endian byte range, used for
// block copies and ELF segment loading.
func (m *Manager) ReadBytes(addr uint64, size int) ([]byte, error) {
	return m.read(addr, size)
}

// WriteBytes stores an arbitrary-length byte range.
func (m *Manager) WriteBytes(addr uint64, data []byte) error {
	return m.write(addr, data)
}

// TrackSpeculativeLoad attempts the ld.s load at address immediately and
// records the outcome keyed by address, so a later chk.s at the same
// address can recover the status without the original destination
// register. A failing address (unmapped or unreadable) is recorded as
// Failed rather than left untracked, so CheckSpeculativeLoad can tell "the
// load was attempted and failed" apart from "nothing was ever tracked
// here".
func (m *Manager) TrackSpeculativeLoad(address, size uint64) SpeculativeStatus {
	data, err := m.read(address, int(size))
	if err != nil {
		m.speculative[address] = speculativeLoad{status: SpeculativeFailed}
		return SpeculativeFailed
	}
	m.speculative[address] = speculativeLoad{status: SpeculativeSuccess, data: data}
	return SpeculativeSuccess
}

// CancelSpeculativeLoad transitions the load tracked at address to
// Cancelled, as happens when an intervening store or instruction
// invalidates it. The record is kept, not deleted, so a later
// CheckSpeculativeLoad still finds it and reports Cancelled rather than
// "not tracked".
func (m *Manager) CancelSpeculativeLoad(address uint64) {
	load, ok := m.speculative[address]
	if !ok {
		return
	}
	load.status = SpeculativeCancelled
	m.speculative[address] = load
}

// CheckSpeculativeLoad returns the status of the speculative load tracked
// at address (chk.s should branch to recovery unless it is
// SpeculativeSuccess), and whether anything is tracked there at all.
func (m *Manager) CheckSpeculativeLoad(address uint64) (SpeculativeStatus, bool) {
	load, ok := m.speculative[address]
	return load.status, ok
}
