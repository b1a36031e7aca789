package memory

// TLBEntry is one cached virtual-to-physical translation.
type TLBEntry struct {
	VirtualPage  uint64
	PhysicalPage uint64
	Valid        bool
}

// TLB is a small direct-mapped translation cache. Virtual addressing and
// page-table walks are out of scope; this stub exists only so later work
// on the privileged translation-management instructions (itr/itc/ptc)
// has a concrete table to insert into and probe, without yet committing
// to a page-table format.
type TLB struct {
	entries []TLBEntry
	pageLog uint
}

// NewTLB returns a TLB with the given number of direct-mapped entries and
// a page size of 1<<pageLog bytes.
func NewTLB(entryCount int, pageLog uint) *TLB {
	return &TLB{
		entries: make([]TLBEntry, entryCount),
		pageLog: pageLog,
	}
}

func (t *TLB) index(virtualPage uint64) int {
	return int(virtualPage) % len(t.entries)
}

// Insert installs a translation, evicting whatever direct-mapped entry
// currently occupies that slot.
func (t *TLB) Insert(virtualPage, physicalPage uint64) {
	idx := t.index(virtualPage)
	t.entries[idx] = TLBEntry{VirtualPage: virtualPage, PhysicalPage: physicalPage, Valid: true}
}

// Lookup returns the physical page for a virtual page, if present.
func (t *TLB) Lookup(virtualPage uint64) (physicalPage uint64, ok bool) {
	e := t.entries[t.index(virtualPage)]
	if !e.Valid || e.VirtualPage != virtualPage {
		return 0, false
	}
	return e.PhysicalPage, true
}

// Purge invalidates the entry mapping virtualPage, if any.
func (t *TLB) Purge(virtualPage uint64) {
	idx := t.index(virtualPage)
	if t.entries[idx].VirtualPage == virtualPage {
		t.entries[idx].Valid = false
	}
}

// Translate converts a virtual address to a physical address using the
// configured page size, returning ok=false on a miss.
func (t *TLB) Translate(virtualAddr uint64) (physicalAddr uint64, ok bool) {
	pageMask := uint64(1)<<t.pageLog - 1
	vpn := virtualAddr >> t.pageLog
	ppn, hit := t.Lookup(vpn)
	if !hit {
		return 0, false
	}
	return (ppn << t.pageLog) | (virtualAddr & pageMask), true
}
