package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lookbusy1344/luz/loader"
	"github.com/lookbusy1344/luz/objfile"
	"github.com/lookbusy1344/luz/peripheral"
	"github.com/lookbusy1344/luz/vm"
)

func newRunCmd() *cobra.Command {
	var trace string

	cmd := &cobra.Command{
		Use:   "run <exe.lze>",
		Short: "Load and execute an image to HALT, printing the final register file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := objfile.ReadExecutable(args[0])
			if err != nil {
				return err
			}

			queue := peripheral.NewQueue(flagPeripheralAddr)
			machine := loader.Load(exe, queue)

			var traceFile *os.File
			if trace != "" {
				traceFile, err = os.Create(trace)
				if err != nil {
					return err
				}
				defer traceFile.Close()
			}

			ran := 0
			limit := int(flagMaxCycles)
			for ran < limit && !machine.CPU.Halt {
				if traceFile != nil {
					pc := machine.CPU.PC
					fmt.Fprintf(traceFile, "0x%08X r=%v\n", pc, machine.CPU.R)
				}
				machine.Step()
				ran++
			}

			printRegisters(machine)
			if len(queue.Words()) > 0 {
				fmt.Printf("peripheral queue (%d words):\n", len(queue.Words()))
				for _, w := range queue.Words() {
					fmt.Printf("  0x%08X\n", w)
				}
			}

			if !machine.CPU.Halt {
				return fmt.Errorf("cycle limit (%d) exceeded without HALT", limit)
			}
			if machine.CPU.Cause != vm.CauseNone {
				return fmt.Errorf("halted on exception: %s at pc=0x%08X", machine.CPU.Cause, machine.CPU.ERR)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&trace, "trace", "", "write an execution trace to FILE")
	return cmd
}

func printRegisters(machine *vm.VM) {
	for i := 0; i < 32; i += 4 {
		fmt.Printf("r%-2d=0x%08X  r%-2d=0x%08X  r%-2d=0x%08X  r%-2d=0x%08X\n",
			i, machine.CPU.GetRegister(i),
			i+1, machine.CPU.GetRegister(i+1),
			i+2, machine.CPU.GetRegister(i+2),
			i+3, machine.CPU.GetRegister(i+3))
	}
	fmt.Printf("pc=0x%08X cause=%s\n", machine.CPU.PC, machine.CPU.Cause)
}
