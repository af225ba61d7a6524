package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lookbusy1344/luz/disasm"
	"github.com/lookbusy1344/luz/objfile"
)

func newDisasmCmd() *cobra.Command {
	var showAlias bool

	cmd := &cobra.Command{
		Use:   "disasm <exe.lze>",
		Short: "Disassemble a linked executable's code segment without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := objfile.ReadExecutable(args[0])
			if err != nil {
				return err
			}

			for _, seg := range exe.Segments {
				if seg.Name != "code" {
					continue
				}
				for off := uint32(0); off+4 <= uint32(len(seg.Data)); off += 4 {
					word := uint32(seg.Data[off]) | uint32(seg.Data[off+1])<<8 |
						uint32(seg.Data[off+2])<<16 | uint32(seg.Data[off+3])<<24
					addr := seg.Base + off
					fmt.Printf("%08X: %s\n", addr, disasm.Disassemble(word, addr, showAlias))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAlias, "alias", true, "show symbolic register names")
	return cmd
}
