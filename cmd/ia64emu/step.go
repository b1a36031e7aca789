package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/paigeadelethompson/ia64emu/config"
	"github.com/paigeadelethompson/ia64emu/decoder"
	"github.com/paigeadelethompson/ia64emu/internal/logging"
	"github.com/paigeadelethompson/ia64emu/loader"
)

func newStepCmd(loadConfig func() (*config.Config, error), debug *bool) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "step <elf>",
		Short: "Load an IA-64 ELF image and single-step it bundle by bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log := logging.New(cmd.OutOrStderr(), slog.LevelInfo, *debug)

			prog, err := loader.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load program: %w", err)
			}

			core, err := buildCore(cfg, prog)
			if err != nil {
				return err
			}
			log.Info("loaded program", "path", args[0], "entry", fmt.Sprintf("%#x", prog.EntryPoint))

			for i := 0; i < steps; i++ {
				ip := core.IP()
				var raw [16]byte
				for j := 0; j < 16; j++ {
					b, err := core.Memory.ReadUint8(ip + uint64(j))
					if err != nil {
						return fmt.Errorf("fetch at %#x: %w", ip, err)
					}
					raw[j] = b
				}

				bundle, err := decoder.Decode(raw)
				if err != nil {
					return fmt.Errorf("decode at %#x: %w", ip, err)
				}

				for _, in := range decoder.DecodeInstructions(bundle) {
					if err := core.Execute(in); err != nil {
						return fmt.Errorf("execute at %#x: %w", ip, err)
					}
				}

				log.Debug("stepped bundle", "ip", fmt.Sprintf("%#x", ip))
				core.AdvanceIP()
			}

			fmt.Printf("IP after %d bundle(s): %#x\n", steps, core.IP())
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of bundles to execute")
	return cmd
}
