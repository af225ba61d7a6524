package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lookbusy1344/luz/debugger"
	"github.com/lookbusy1344/luz/loader"
	"github.com/lookbusy1344/luz/objfile"
	"github.com/lookbusy1344/luz/peripheral"
)

func newDebugCmd() *cobra.Command {
	var tui bool

	cmd := &cobra.Command{
		Use:   "debug <exe.lze>",
		Short: "Interactively step and inspect a loaded executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := objfile.ReadExecutable(args[0])
			if err != nil {
				return err
			}

			queue := peripheral.NewQueue(flagPeripheralAddr)
			machine := loader.Load(exe, queue)

			dbg := debugger.NewDebugger(machine)
			dbg.ShowAlias = cfg.Debugger.ShowAlias
			dbg.MaxCycles = int(flagMaxCycles)

			if tui {
				return debugger.RunTUI(dbg)
			}
			return debugger.RunCLI(dbg, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().BoolVar(&tui, "tui", false, "launch the full-screen debugger")
	return cmd
}
