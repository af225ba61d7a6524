// Command luz is the Luz toolchain front end: assemble, link, run, and
// debug LASM programs. Subcommands follow spec.md §6's CLI surface;
// the command tree is a cobra root command with one file per
// subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lookbusy1344/luz/config"
)

var (
	flagVerbose        bool
	flagMaxCycles      uint64
	flagPeripheralAddr uint32

	cfg *config.Config
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "luz: %v\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:   "luz",
		Short: "Assembler, linker and simulator for the Luz toy RISC ISA",
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose diagnostic output")
	root.PersistentFlags().Uint64Var(&flagMaxCycles, "max-cycles", cfg.Execution.MaxCycles, "instruction budget for run/debug continue")
	root.PersistentFlags().Uint32Var(&flagPeripheralAddr, "peripheral-addr", cfg.Execution.PeripheralAddr, "address the debug queue observes stores to")

	root.AddCommand(
		newAssembleCmd(),
		newLinkCmd(),
		newRunCmd(),
		newDebugCmd(),
		newDisasmCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "luz: %v\n", err)
		os.Exit(1)
	}
}

func verbosef(format string, args ...interface{}) {
	if flagVerbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
