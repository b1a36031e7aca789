package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paigeadelethompson/ia64emu/config"
	"github.com/paigeadelethompson/ia64emu/loader"
)

func newDumpCmd(loadConfig func() (*config.Config, error), debug *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <elf>",
		Short: "Load an IA-64 ELF image and print its general/predicate/branch register banks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			prog, err := loader.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load program: %w", err)
			}

			core, err := buildCore(cfg, prog)
			if err != nil {
				return err
			}

			fmt.Printf("IP: %#x\n", core.IP())
			fmt.Println("General registers:")
			for i := 0; i < 32; i++ {
				v, err := core.Registers.GR(i)
				if err != nil {
					return err
				}
				fmt.Printf("  gr%-3d %#016x\n", i, v)
			}

			fmt.Println("Predicate registers:")
			for i := 0; i < 64; i++ {
				v, err := core.Registers.PR(i)
				if err != nil {
					return err
				}
				if v {
					fmt.Printf("  pr%d = true\n", i)
				}
			}

			fmt.Println("Branch registers:")
			for i := 0; i < 8; i++ {
				v, err := core.Registers.BR(i)
				if err != nil {
					return err
				}
				fmt.Printf("  br%d %#016x\n", i, v)
			}

			return nil
		},
	}
	return cmd
}
