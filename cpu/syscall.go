package cpu

import (
	"time"

	"github.com/paigeadelethompson/ia64emu/ia64err"
)

// SyscallNumber names the ABI numbers spec.md §6 enumerates.
type SyscallNumber uint64

// The recognised syscall numbers.
const (
	SyscallExit         SyscallNumber = 1
	SyscallFork         SyscallNumber = 2
	SyscallRead         SyscallNumber = 3
	SyscallWrite        SyscallNumber = 4
	SyscallOpen         SyscallNumber = 5
	SyscallClose        SyscallNumber = 6
	SyscallWaitPid      SyscallNumber = 7
	SyscallExecve       SyscallNumber = 11
	SyscallChDir        SyscallNumber = 12
	SyscallTime         SyscallNumber = 13
	SyscallMkDir        SyscallNumber = 14
	SyscallRmDir        SyscallNumber = 15
	SyscallBreak        SyscallNumber = 17
	SyscallGetPid       SyscallNumber = 20
	SyscallMount        SyscallNumber = 21
	SyscallUnmount      SyscallNumber = 22
	SyscallSetUid       SyscallNumber = 23
	SyscallGetUid       SyscallNumber = 24
	SyscallGetTimeOfDay SyscallNumber = 78
	SyscallMmap         SyscallNumber = 90
	SyscallMunmap       SyscallNumber = 91
	SyscallTruncate     SyscallNumber = 92
	SyscallFtruncate    SyscallNumber = 93
	SyscallSocket       SyscallNumber = 97
	SyscallConnect      SyscallNumber = 98
	SyscallAccept       SyscallNumber = 99
	SyscallSend         SyscallNumber = 100
	SyscallRecv         SyscallNumber = 101
	SyscallShutdown     SyscallNumber = 102
)

// errNosys is the Linux-conventional ENOSYS value returned in GR[9] for
// a recognised-but-unimplemented syscall.
const errNosys = 38

// ABI is the decoded syscall request the manager reads off the register
// bank before dispatch: up to 8 arguments from GR[32..40] and the number
// from a designated slot (GR[40], the slot immediately following the
// argument window, by this repo's own convention — spec.md §6 names the
// argument registers exactly but leaves the number slot "designated"
// without fixing an index).
type ABI struct {
	Number SyscallNumber
	Args   [8]uint64
}

// syscallNumberGR, syscallArgBase are the designated GR indices.
const (
	syscallArgBase = 32
	syscallNumberGR = 40
	syscallResultGR = 8
	syscallErrorGR  = 9
)

// SyscallHandler is the body a driver supplies for each recognised
// syscall number. Grounded on the teacher's emu.SyscallHandler interface
// shape, retargeted from the ARM64 X0-X5/X8 ABI to spec.md §6's
// GR[32..40]/GR[8]/GR[9] convention.
type SyscallHandler interface {
	Handle(number SyscallNumber, args [8]uint64) (result uint64, errno uint64)
}

// DefaultSyscallHandler implements the handful of syscalls that can be
// served against host facilities without an external driver: Exit
// terminates by returning its code as the result, Read/Write shell out
// to nothing (no guest memory buffer is available without the driver's
// cooperation, so they report ENOSYS the same as any unimplemented
// number), GetPid returns a fixed pseudo-pid, Time/GetTimeOfDay read the
// host clock. Everything else is the caller's responsibility to
// override.
type DefaultSyscallHandler struct {
	Pid uint64
}

// NewDefaultSyscallHandler returns a handler reporting pid as its
// GetPid result.
func NewDefaultSyscallHandler(pid uint64) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{Pid: pid}
}

// Handle implements SyscallHandler.
func (h *DefaultSyscallHandler) Handle(number SyscallNumber, args [8]uint64) (uint64, uint64) {
	switch number {
	case SyscallExit:
		return args[0], 0
	case SyscallGetPid:
		return h.Pid, 0
	case SyscallTime:
		return uint64(time.Now().Unix()), 0
	case SyscallGetTimeOfDay:
		now := time.Now()
		return uint64(now.Unix())<<32 | uint64(now.Nanosecond()/1000), 0
	default:
		return setError(errNosys)
	}
}

// setError packs the two's-complement-style (result=0, errno=errno)
// pair a failed syscall reports, mirroring the teacher's setError
// helper.
func setError(errno uint64) (uint64, uint64) {
	return 0, errno
}

// SyscallManager reads the ABI registers off a Core, recognises the
// enumerated syscall numbers, and delegates to an installed
// SyscallHandler, writing the result/error pair back to GR[8]/GR[9].
type SyscallManager struct {
	handler SyscallHandler
}

// NewSyscallManager returns a manager delegating to handler. A nil
// handler is valid; Dispatch then reports NoSyscallContext.
func NewSyscallManager(handler SyscallHandler) *SyscallManager {
	return &SyscallManager{handler: handler}
}

// SetHandler installs (or replaces) the syscall handler.
func (m *SyscallManager) SetHandler(handler SyscallHandler) { m.handler = handler }

// readABI loads the syscall number and argument window off the register
// bank.
func (c *Core) readABI() (ABI, error) {
	var abi ABI
	number, err := c.gr(syscallNumberGR)
	if err != nil {
		return ABI{}, err
	}
	abi.Number = SyscallNumber(number)
	for i := 0; i < 8; i++ {
		v, err := c.gr(uint8(syscallArgBase + i))
		if err != nil {
			return ABI{}, err
		}
		abi.Args[i] = v
	}
	return abi, nil
}

// Syscall reads the ABI registers, validates the number against the
// enumerated set, and dispatches to the installed handler, writing the
// result to GR[8] and the error (0 = success) to GR[9].
func (c *Core) Syscall() error {
	abi, err := c.readABI()
	if err != nil {
		return err
	}
	if !isRecognisedSyscall(abi.Number) {
		return ia64err.NewInvalidSyscall(uint64(abi.Number))
	}
	if c.Syscalls == nil || c.Syscalls.handler == nil {
		return ia64err.NewNoSyscallContext()
	}

	result, errno := c.Syscalls.handler.Handle(abi.Number, abi.Args)
	if err := c.setGR(syscallResultGR, result); err != nil {
		return err
	}
	return c.setGR(syscallErrorGR, errno)
}

func isRecognisedSyscall(n SyscallNumber) bool {
	switch n {
	case SyscallExit, SyscallFork, SyscallRead, SyscallWrite, SyscallOpen, SyscallClose,
		SyscallWaitPid, SyscallExecve, SyscallChDir, SyscallTime, SyscallMkDir, SyscallRmDir,
		SyscallBreak, SyscallGetPid, SyscallMount, SyscallUnmount, SyscallSetUid, SyscallGetUid,
		SyscallGetTimeOfDay, SyscallMmap, SyscallMunmap, SyscallTruncate, SyscallFtruncate,
		SyscallSocket, SyscallConnect, SyscallAccept, SyscallSend, SyscallRecv, SyscallShutdown:
		return true
	default:
		return false
	}
}
