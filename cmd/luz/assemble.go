package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lookbusy1344/luz/assembler"
	"github.com/lookbusy1344/luz/object"
	"github.com/lookbusy1344/luz/objfile"
)

func newAssembleCmd() *cobra.Command {
	var output string
	var dumpSymbols bool

	cmd := &cobra.Command{
		Use:   "assemble <src.lasm>...",
		Short: "Assemble one or more LASM sources into object images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return fmt.Errorf("-o only applies when a single source is given; omit it to write one .lzo per source")
			}

			for _, src := range args {
				data, err := os.ReadFile(src)
				if err != nil {
					return err
				}

				img, errs := assembler.Assemble(string(data), src)
				if errs != nil {
					fmt.Fprint(os.Stderr, errs.Error())
					return fmt.Errorf("assembly failed: %s", src)
				}

				if dumpSymbols {
					dumpSymbolTable(img)
					continue
				}

				out := output
				if out == "" {
					out = strings.TrimSuffix(src, filepath.Ext(src)) + ".lzo"
				}
				if err := objfile.WriteObject(out, img); err != nil {
					return err
				}
				verbosef("assembled %s -> %s\n", src, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output object file (single source only)")
	cmd.Flags().BoolVar(&dumpSymbols, "dump-symbols", false, "print the resolved symbol table instead of emitting an object")
	return cmd
}

func dumpSymbolTable(img *object.Image) {
	names := make([]string, 0, len(img.Symbols))
	for name := range img.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sym := img.Symbols[name]
		scope := "local"
		if sym.Global {
			scope = "global"
		}
		fmt.Printf("%-24s %-8s +0x%04X  %s\n", name, sym.Segment, sym.Offset, scope)
	}
}
