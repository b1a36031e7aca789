// Command ia64emu is the driver binary: load an IA-64 ELF image, decode
// bundles, single-step a Core, or dump its register banks, following the
// subcommand-tree-over-a-rootCmd shape the teacher corpus's own CLI
// entries use.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paigeadelethompson/ia64emu/config"
)

func main() {
	var configPath string
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "ia64emu",
		Short: "IA-64 instruction set emulator",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (defaults to the platform config path)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "echo log records to stderr regardless of level")

	loadConfig := func() (*config.Config, error) {
		if configPath != "" {
			return config.LoadFrom(configPath)
		}
		return config.Load()
	}

	rootCmd.AddCommand(
		newDecodeCmd(),
		newStepCmd(loadConfig, &debug),
		newDumpCmd(loadConfig, &debug),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
