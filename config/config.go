// Package config loads the boot-time parameters spec.md leaves as
// implementation details: cache geometry, RSE backing-store sizing, ALAT
// capacity, and the initial memory map a driver uses to stand up a Core.
// Struct-tag TOML decoding and the Load/Save split follow the teacher
// corpus's own config loader shape.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the full boot configuration a CLI driver loads before
// constructing a cpu.Core.
type Config struct {
	// Cache geometry for the three-level hierarchy memory.Manager wraps.
	Cache struct {
		L1SizeBytes uint64 `toml:"l1_size_bytes"`
		L1Ways      int    `toml:"l1_ways"`
		L2SizeBytes uint64 `toml:"l2_size_bytes"`
		L2Ways      int    `toml:"l2_ways"`
		L3SizeBytes uint64 `toml:"l3_size_bytes"`
		L3Ways      int    `toml:"l3_ways"`
		LineBytes   int    `toml:"line_bytes"`
	} `toml:"cache"`

	// RSE backing-store placement and spill discipline.
	RSE struct {
		BackingStoreBase uint64 `toml:"backing_store_base"`
		InitialInvalid   uint32 `toml:"initial_invalid"`
		Mode             string `toml:"mode"` // "enforced", "eager", "lazy"
	} `toml:"rse"`

	// ALAT sizing.
	ALAT struct {
		Capacity int `toml:"capacity"`
	} `toml:"alat"`

	// Memory map applied before the boot image is loaded.
	Memory struct {
		Regions []RegionConfig `toml:"region"`
	} `toml:"memory"`

	// Boot holds the initial IP and stack placement.
	Boot struct {
		EntryPoint uint64 `toml:"entry_point"`
		StackTop   uint64 `toml:"stack_top"`
		StackSize  uint64 `toml:"stack_size"`
	} `toml:"boot"`
}

// RegionConfig is one [[memory.region]] table entry: a mapped range and
// its permission.
type RegionConfig struct {
	Base       uint64 `toml:"base"`
	Size       uint64 `toml:"size"`
	Permission string `toml:"permission"` // "r", "rw", "rx", "rwx"
}

// DefaultConfig returns a configuration sized for the cache geometry
// spec.md §4.6 documents (L1=32KiB/8-way, L2=256KiB/8-way, L3=6MiB/12-way,
// 64B lines) and a single RWX region covering the low 1MiB for a boot
// image.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Cache.L1SizeBytes = 32 * 1024
	cfg.Cache.L1Ways = 8
	cfg.Cache.L2SizeBytes = 256 * 1024
	cfg.Cache.L2Ways = 8
	cfg.Cache.L3SizeBytes = 6 * 1024 * 1024
	cfg.Cache.L3Ways = 12
	cfg.Cache.LineBytes = 64

	cfg.RSE.BackingStoreBase = 0x8000_0000
	cfg.RSE.InitialInvalid = 96
	cfg.RSE.Mode = "enforced"

	cfg.ALAT.Capacity = 32

	cfg.Memory.Regions = []RegionConfig{
		{Base: 0, Size: 1 << 20, Permission: "rwx"},
	}

	cfg.Boot.EntryPoint = 0
	cfg.Boot.StackTop = 0x7fff_0000
	cfg.Boot.StackSize = 8 * 1024 * 1024

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "ia64emu")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "ia64emu")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, falling back to DefaultConfig
// if the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to path, creating parent directories as
// needed.
func (c *Config) SaveTo(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- caller-supplied config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
