package cpu

import "github.com/paigeadelethompson/ia64emu/ia64err"

// Vector names one of the 30 architected interrupt/exception vectors
// spec.md §4.8 enumerates, occupying 30 of the 32 table slots.
type Vector uint8

// The enumerated interrupt vectors.
const (
	VectorExtInt Vector = iota
	VectorVirtualMemoryFault
	VectorInstructionTLBFault
	VectorDataTLBFault
	VectorAltInstructionTLBFault
	VectorAltDataTLBFault
	VectorDataNestedTLBFault
	VectorInstructionKeyMissFault
	VectorDataKeyMissFault
	VectorDirtyBitFault
	VectorInstructionAccessBitFault
	VectorDataAccessBitFault
	VectorBreakFault
	VectorExternalReset
	VectorNatConsumptionFault
	VectorReservedRegisterFault
	VectorDisabledFPRegisterFault
	VectorUnimplementedDataAddressFault
	VectorPrivilegedOperationFault
	VectorDisabledISATransitionFault
	VectorIllegalOperationFault
	VectorIllegalDependencyFault
	VectorDebugFault
	VectorUnalignedReferenceFault
	VectorUnsupportedDataReferenceFault
	VectorFPFault
	VectorFPTrap
	VectorLowerPrivilegeTransferTrap
	VectorTakenBranchTrap
	VectorSingleStepTrap
)

// vectorTableSize is the fixed 32-slot table width; only 30 slots are
// named, the remaining two are reserved.
const vectorTableSize = 32

// State is one recorded interrupt occurrence: the vector, the processor
// context at the moment it was raised, and vector-specific info.
type State struct {
	Vector Vector
	IP     uint64
	PSR    uint64
	Bundle [16]byte
	Info   uint64
}

// handlerEntry is one VectorTable slot.
type handlerEntry struct {
	address      uint64
	minPrivilege uint8
	enabled      bool
}

// VectorTable is the fixed 32-slot interrupt handler table spec.md §4.8
// names as part of the interrupt controller.
type VectorTable struct {
	handlers [vectorTableSize]handlerEntry
}

// NewVectorTable returns a table with every slot disabled.
func NewVectorTable() *VectorTable {
	return &VectorTable{}
}

// RegisterHandler installs a handler address and minimum privilege for
// vector, enabling it.
func (t *VectorTable) RegisterHandler(vector Vector, address uint64, minPrivilege uint8) error {
	idx := int(vector)
	if idx < 0 || idx >= vectorTableSize {
		return ia64err.NewCPUStateError("invalid interrupt vector")
	}
	t.handlers[idx] = handlerEntry{address: address, minPrivilege: minPrivilege, enabled: true}
	return nil
}

// SetEnabled toggles a vector's handler without touching its address or
// minimum privilege.
func (t *VectorTable) SetEnabled(vector Vector, enabled bool) error {
	idx := int(vector)
	if idx < 0 || idx >= vectorTableSize {
		return ia64err.NewCPUStateError("invalid interrupt vector")
	}
	t.handlers[idx].enabled = enabled
	return nil
}

// HandlerAddress returns the handler address for vector if its slot is
// enabled.
func (t *VectorTable) HandlerAddress(vector Vector) (addr uint64, ok bool, err error) {
	idx := int(vector)
	if idx < 0 || idx >= vectorTableSize {
		return 0, false, ia64err.NewCPUStateError("invalid interrupt vector")
	}
	h := t.handlers[idx]
	if !h.enabled {
		return 0, false, nil
	}
	return h.address, true, nil
}

// InterruptController is the pending/current/nesting interrupt state
// machine spec.md §4.8 describes, grounded on the same
// table-plus-pending-stack shape the original source's InterruptController
// uses, ported faithfully (its raise/check/return behaviour carries no
// documented bug the way RSE.Deallocate and ALAT alignment did).
type InterruptController struct {
	table   *VectorTable
	pending []State

	current *State
	nesting uint32
	enabled bool
}

// NewInterruptController returns a controller with interrupts disabled
// and an empty handler table.
func NewInterruptController() *InterruptController {
	return &InterruptController{table: NewVectorTable()}
}

// RegisterHandler installs a handler for vector.
func (ic *InterruptController) RegisterHandler(vector Vector, address uint64, minPrivilege uint8) error {
	return ic.table.RegisterHandler(vector, address, minPrivilege)
}

// SetEnabled enables or disables interrupt delivery globally.
func (ic *InterruptController) SetEnabled(enabled bool) { ic.enabled = enabled }

// Raise pushes a new pending interrupt state.
func (ic *InterruptController) Raise(state State) {
	ic.pending = append(ic.pending, state)
}

// Check pops the most recently raised pending interrupt (LIFO, matching
// the source's priority rule), re-queues the previously current state if
// this is a nested delivery, and promotes the popped state to current if
// its handler is enabled and the caller's privilege level is sufficient.
// Returns the handler address to dispatch to, or ok=false if nothing was
// delivered.
func (ic *InterruptController) Check() (handlerAddr uint64, ok bool) {
	if !ic.enabled || len(ic.pending) == 0 {
		return 0, false
	}

	last := len(ic.pending) - 1
	state := ic.pending[last]
	ic.pending = ic.pending[:last]

	if ic.nesting > 0 && ic.current != nil {
		ic.pending = append(ic.pending, *ic.current)
		ic.current = nil
	}

	addr, enabled, err := ic.table.HandlerAddress(state.Vector)
	if err != nil || !enabled {
		return 0, false
	}
	privilege := (state.PSR >> 32) & 0x3
	idx := int(state.Vector)
	if idx < 0 || idx >= vectorTableSize || uint8(privilege) < ic.table.handlers[idx].minPrivilege {
		return 0, false
	}

	ic.current = &state
	ic.nesting++
	return addr, true
}

// Return unwinds one level of interrupt nesting, restoring the next
// pending interrupt (if any) as current and returning its handler
// address.
func (ic *InterruptController) Return() (handlerAddr uint64, ok bool) {
	if ic.nesting == 0 {
		return 0, false
	}
	ic.nesting--
	ic.current = nil

	if len(ic.pending) == 0 {
		return 0, false
	}
	last := len(ic.pending) - 1
	state := ic.pending[last]
	ic.pending = ic.pending[:last]

	addr, enabled, err := ic.table.HandlerAddress(state.Vector)
	if err != nil || !enabled {
		return 0, false
	}
	ic.current = &state
	return addr, true
}

// Current returns the currently executing interrupt state, if any.
func (ic *InterruptController) Current() (State, bool) {
	if ic.current == nil {
		return State{}, false
	}
	return *ic.current, true
}

// Nesting returns the current interrupt nesting depth.
func (ic *InterruptController) Nesting() uint32 { return ic.nesting }

// ClearPending drops every queued interrupt without affecting Current.
func (ic *InterruptController) ClearPending() { ic.pending = nil }
