package main

import (
	"fmt"

	"github.com/paigeadelethompson/ia64emu/config"
	"github.com/paigeadelethompson/ia64emu/cpu"
	"github.com/paigeadelethompson/ia64emu/loader"
	"github.com/paigeadelethompson/ia64emu/memory"
)

// permissionFromString maps a config RegionConfig.Permission string to a
// memory.Permission, the inverse of the "r"/"rw"/"rx"/"rwx" vocabulary
// config.DefaultConfig documents.
func permissionFromString(s string) (memory.Permission, error) {
	switch s {
	case "r":
		return memory.PermRead, nil
	case "rw":
		return memory.PermReadWrite, nil
	case "rx":
		return memory.PermReadExecute, nil
	case "rwx":
		return memory.PermReadWriteExecute, nil
	default:
		return memory.PermNone, fmt.Errorf("unrecognised permission %q", s)
	}
}

// buildCore constructs a Core from cfg, maps the configured regions, then
// loads prog's segments over them.
func buildCore(cfg *config.Config, prog *loader.Program) (*cpu.Core, error) {
	core := cpu.New(cfg.RSE.BackingStoreBase, cfg.RSE.InitialInvalid)

	for _, region := range cfg.Memory.Regions {
		perm, err := permissionFromString(region.Permission)
		if err != nil {
			return nil, err
		}
		if err := core.Memory.Map(region.Base, region.Size, perm); err != nil {
			return nil, fmt.Errorf("failed to map region at %#x: %w", region.Base, err)
		}
	}

	for _, seg := range prog.Segments {
		for i, b := range seg.Data {
			if err := core.Memory.WriteUint8(seg.VirtAddr+uint64(i), b); err != nil {
				return nil, fmt.Errorf("failed to load segment at %#x: %w", seg.VirtAddr, err)
			}
		}
		for i := uint64(len(seg.Data)); i < seg.MemSize; i++ {
			if err := core.Memory.WriteUint8(seg.VirtAddr+i, 0); err != nil {
				return nil, fmt.Errorf("failed to zero-fill bss at %#x: %w", seg.VirtAddr, err)
			}
		}
	}

	core.SetIP(prog.EntryPoint)
	return core, nil
}
