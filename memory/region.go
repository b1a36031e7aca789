package memory

import (
	"sort"

	"github.com/paigeadelethompson/ia64emu/ia64err"
)

// Region is a mapped, zero-initialised byte range with a single
// permission grant.
type Region struct {
	Base  uint64
	Size  uint64
	Perm  Permission
	Bytes []byte
}

// regionMap keeps mapped regions ordered by base address so Find can do
// the "greatest key at or below addr" predecessor search map/unmap and
// lookup need.
type regionMap struct {
	bases   []uint64
	regions map[uint64]*Region
}

func newRegionMap() *regionMap {
	return &regionMap{regions: make(map[uint64]*Region)}
}

// Map inserts a new zero-filled region, rejecting any overlap with an
// existing region.
func (m *regionMap) Map(base, size uint64, perm Permission) error {
	for _, r := range m.regions {
		if base < r.Base+r.Size && r.Base < base+size {
			return ia64err.NewMemoryOverlap(base, size)
		}
	}

	m.regions[base] = &Region{Base: base, Size: size, Perm: perm, Bytes: make([]byte, size)}
	idx := sort.Search(len(m.bases), func(i int) bool { return m.bases[i] >= base })
	m.bases = append(m.bases, 0)
	copy(m.bases[idx+1:], m.bases[idx:])
	m.bases[idx] = base
	return nil
}

// Unmap removes exactly the region keyed at base.
func (m *regionMap) Unmap(base uint64) error {
	if _, ok := m.regions[base]; !ok {
		return ia64err.NewMemoryError(base, "region not found")
	}
	delete(m.regions, base)
	idx := sort.Search(len(m.bases), func(i int) bool { return m.bases[i] >= base })
	m.bases = append(m.bases[:idx], m.bases[idx+1:]...)
	return nil
}

// Find returns the region whose [base, base+size) interval contains addr:
// the predecessor search finds the greatest mapped base at or below addr,
// then checks addr falls within its extent.
func (m *regionMap) Find(addr uint64) (*Region, error) {
	idx := sort.Search(len(m.bases), func(i int) bool { return m.bases[i] > addr }) - 1
	if idx < 0 {
		return nil, ia64err.NewMemoryError(addr, "address not mapped")
	}
	r := m.regions[m.bases[idx]]
	if addr >= r.Base+r.Size {
		return nil, ia64err.NewMemoryError(addr, "address not mapped")
	}
	return r, nil
}
