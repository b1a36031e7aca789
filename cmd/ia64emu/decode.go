package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paigeadelethompson/ia64emu/decoder"
)

func newDecodeCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode bundles from a raw binary and print their slot kinds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0]) // #nosec G304 -- user-supplied CLI argument
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			offset := 0
			decoded := 0
			for offset+16 <= len(data) && (count <= 0 || decoded < count) {
				var raw [16]byte
				copy(raw[:], data[offset:offset+16])

				bundle, err := decoder.Decode(raw)
				if err != nil {
					return fmt.Errorf("bundle at offset %#x: %w", offset, err)
				}

				insts := decoder.DecodeInstructions(bundle)
				fmt.Printf("%#06x: template=%v\n", offset, bundle.Template)
				for i, in := range insts {
					fmt.Printf("  slot%d: kind=%v qp=%d raw=%#x\n", i, in.Kind, in.QP(), binary.LittleEndian.Uint64(raw[:8]))
				}

				offset += 16
				decoded++
			}

			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "number of bundles to decode (0 = all)")
	return cmd
}
