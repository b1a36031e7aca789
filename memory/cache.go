package memory

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// CacheConfig holds one cache level's geometry.
type CacheConfig struct {
	Size          int
	Associativity int
	BlockSize     int
}

// L1Config, L2Config, L3Config are the three cache levels an IA-64
// processor aggregate wires up, per the documented geometry: L1=32KiB/
// 8-way/64B, L2=256KiB/8-way/64B, L3=6MiB/12-way/128B.
func L1Config() CacheConfig { return CacheConfig{Size: 32 * 1024, Associativity: 8, BlockSize: 64} }
func L2Config() CacheConfig { return CacheConfig{Size: 256 * 1024, Associativity: 8, BlockSize: 64} }
func L3Config() CacheConfig {
	return CacheConfig{Size: 6 * 1024 * 1024, Associativity: 12, BlockSize: 128}
}

// Hint is a cache-retention completer toggled on the memory manager
// before an access.
type Hint uint8

// The four cache hints spec.md §4.5 names.
const (
	HintNormal Hint = iota
	HintNonTemporal1
	HintNonTemporalAll
	HintBias
)

// cacheLevel wraps an Akita cache directory for tag/LRU bookkeeping with
// a byte-addressed data store, exactly as the teacher's timing/cache.Cache
// does, generalised to whatever block size/associativity a level needs.
type cacheLevel struct {
	config      CacheConfig
	directory   *akitacache.DirectoryImpl
	dataStore   [][]byte
	nonTemporal bool
}

func newCacheLevel(cfg CacheConfig) *cacheLevel {
	numSets := cfg.Size / (cfg.Associativity * cfg.BlockSize)
	totalBlocks := numSets * cfg.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, cfg.BlockSize)
	}

	return &cacheLevel{
		config: cfg,
		directory: akitacache.NewDirectory(
			numSets,
			cfg.Associativity,
			cfg.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
	}
}

func (c *cacheLevel) blockIndex(b *akitacache.Block) int {
	return b.SetID*c.config.Associativity + b.WayID
}

func (c *cacheLevel) blockAddr(addr uint64) uint64 {
	bs := uint64(c.config.BlockSize)
	return (addr / bs) * bs
}

// read returns (data, true) on a hit; the cache is skipped entirely (a
// miss) when non-temporal.
func (c *cacheLevel) read(addr uint64, size int) ([]byte, bool) {
	if c.nonTemporal {
		return nil, false
	}
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block == nil || !block.IsValid {
		return nil, false
	}
	c.directory.Visit(block)
	offset := int(addr % uint64(c.config.BlockSize))
	out := make([]byte, size)
	copy(out, c.dataStore[c.blockIndex(block)][offset:offset+size])
	return out, true
}

// fill installs data (the full block or a sub-range beginning at addr's
// offset) into the level, evicting via LRU (preferring an Invalid way)
// and reporting any evicted Modified line so the caller can commit it.
func (c *cacheLevel) fill(addr uint64, data []byte, markDirty bool) (evictedAddr uint64, evictedData []byte, evicted bool) {
	if c.nonTemporal {
		return 0, nil, false
	}
	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)
	if block == nil || !block.IsValid {
		block = c.directory.FindVictim(blockAddr)
		if block.IsValid && block.IsDirty {
			evictedAddr = block.Tag
			evictedData = append([]byte(nil), c.dataStore[c.blockIndex(block)]...)
			evicted = true
		}
		block.Tag = blockAddr
		block.IsValid = true
		block.IsDirty = false
	}

	offset := int(addr % uint64(c.config.BlockSize))
	copy(c.dataStore[c.blockIndex(block)][offset:], data)
	if markDirty {
		block.IsDirty = true
	}
	c.directory.Visit(block)
	return evictedAddr, evictedData, evicted
}

// flush collects every Modified line's (composedAddr, data) and resets it
// to Exclusive (IsDirty=false, IsValid stays true — spec.md §4.5 "set
// state to Exclusive", not invalidated).
func (c *cacheLevel) flush() []struct {
	Addr uint64
	Data []byte
} {
	var out []struct {
		Addr uint64
		Data []byte
	}
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				out = append(out, struct {
					Addr uint64
					Data []byte
				}{Addr: block.Tag, Data: append([]byte(nil), c.dataStore[c.blockIndex(block)]...)})
				block.IsDirty = false
			}
		}
	}
	return out
}

// Hierarchy is the three-level L1/L2/L3 cache stack a memory Manager
// consults on every access.
type Hierarchy struct {
	l1, l2, l3 *cacheLevel
}

// NewHierarchy builds the documented L1/L2/L3 geometry.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		l1: newCacheLevel(L1Config()),
		l2: newCacheLevel(L2Config()),
		l3: newCacheLevel(L3Config()),
	}
}

// SetHint applies a cache-retention completer across the hierarchy.
func (h *Hierarchy) SetHint(hint Hint) {
	switch hint {
	case HintNonTemporal1:
		h.l1.nonTemporal = true
		h.l2.nonTemporal = false
		h.l3.nonTemporal = false
	case HintNonTemporalAll:
		h.l1.nonTemporal = true
		h.l2.nonTemporal = true
		h.l3.nonTemporal = true
	case HintNormal, HintBias:
		h.l1.nonTemporal = false
		h.l2.nonTemporal = false
		h.l3.nonTemporal = false
	}
}

// Read walks L1 then L2 then L3, filling intervening non-nt levels after
// a hit; a complete miss is reported to the caller, which must fetch from
// the owning region and call FillAll.
func (h *Hierarchy) Read(addr uint64, size int) (data []byte, hit bool) {
	if d, ok := h.l1.read(addr, size); ok {
		return d, true
	}
	if d, ok := h.l2.read(addr, size); ok {
		h.l1.fill(addr, d, false)
		return d, true
	}
	if d, ok := h.l3.read(addr, size); ok {
		h.l2.fill(addr, d, false)
		h.l1.fill(addr, d, false)
		return d, true
	}
	return nil, false
}

// FillAll installs freshly-fetched region data into every non-nt level,
// L3 down to L1, on a complete miss.
func (h *Hierarchy) FillAll(addr uint64, data []byte) {
	h.l3.fill(addr, data, false)
	h.l2.fill(addr, data, false)
	h.l1.fill(addr, data, false)
}

// evictedWriteback is one eviction the write path must commit to the
// owning region before the new line can take its place.
type evictedWriteback struct {
	Addr uint64
	Data []byte
}

// Write installs data into every non-nt level (this package's declared
// write-through choice, per spec.md §9's ambiguity note: memory is always
// updated directly by the caller in addition to this cache fill), marking
// each hit/filled line Modified, and reports any evictions the caller
// must commit down to the owning region.
func (h *Hierarchy) Write(addr uint64, data []byte) []evictedWriteback {
	var evictions []evictedWriteback
	if a, d, ok := h.l3.fill(addr, data, true); ok {
		evictions = append(evictions, evictedWriteback{Addr: a, Data: d})
	}
	if a, d, ok := h.l2.fill(addr, data, true); ok {
		evictions = append(evictions, evictedWriteback{Addr: a, Data: d})
	}
	if a, d, ok := h.l1.fill(addr, data, true); ok {
		evictions = append(evictions, evictedWriteback{Addr: a, Data: d})
	}
	return evictions
}

// Invalidate drops a specific cache line from every level.
func (h *Hierarchy) Invalidate(addr uint64) {
	for _, lvl := range []*cacheLevel{h.l1, h.l2, h.l3} {
		block := lvl.directory.Lookup(0, lvl.blockAddr(addr))
		if block != nil && block.IsValid {
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Flush collects every Modified line across all three levels for the
// caller to commit to its owning regions.
func (h *Hierarchy) Flush() []evictedWriteback {
	var out []evictedWriteback
	for _, lvl := range []*cacheLevel{h.l1, h.l2, h.l3} {
		for _, e := range lvl.flush() {
			out = append(out, evictedWriteback{Addr: e.Addr, Data: e.Data})
		}
	}
	return out
}
