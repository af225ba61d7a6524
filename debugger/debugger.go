// Package debugger implements the interactive debug surface spec.md §6
// names for `luz debug`: step N instructions, dump registers, dump
// memory, toggle alias display, quit, help. The CLI loop and the
// optional full-screen TUI are both thin front ends over Debugger —
// neither holds any architectural semantics of its own.
package debugger

import (
	"fmt"
	"strings"

	"github.com/lookbusy1344/luz/vm"
)

// Debugger wraps a VM with the inspection/control surface a front end
// (CLI loop or TUI) drives.
type Debugger struct {
	VM *vm.VM

	// Symbols resolves label names to absolute addresses, for commands
	// that accept either a number or a name (e.g. "m asm_main 16").
	Symbols map[string]uint32

	// SourceMap maps an instruction's address to the source line that
	// produced it. Neither the CLI loop nor the TUI displays it.
	SourceMap map[uint32]string

	// ShowAlias selects register display: symbolic names ($sp, $ra, ...)
	// when true, $rN always when false.
	ShowAlias bool

	// MaxCycles bounds "continue" so a runaway program doesn't hang the
	// session forever; zero or a negative value means 10,000,000.
	MaxCycles int

	History     []string
	LastCommand string

	Output strings.Builder
}

// NewDebugger creates a debugger over an already-loaded machine.
func NewDebugger(machine *vm.VM) *Debugger {
	return &Debugger{
		VM:        machine,
		Symbols:   make(map[string]uint32),
		SourceMap: make(map[uint32]string),
		ShowAlias: true,
	}
}

// LoadSymbols installs the symbol table used by ResolveAddress.
func (d *Debugger) LoadSymbols(symbols map[string]uint32) {
	d.Symbols = symbols
}

// LoadSourceMap installs the address-to-source-line map (SourceMap).
func (d *Debugger) LoadSourceMap(sourceMap map[uint32]string) {
	d.SourceMap = sourceMap
}

// ResolveAddress accepts a label name or a numeric address (decimal or
// 0x-prefixed hex) and returns the address it names.
func (d *Debugger) ResolveAddress(s string) (uint32, error) {
	if addr, ok := d.Symbols[s]; ok {
		return addr, nil
	}

	var addr uint32
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if _, err := fmt.Sscanf(s, "0x%x", &addr); err != nil {
			return 0, fmt.Errorf("invalid address: %s", s)
		}
		return addr, nil
	}
	if _, err := fmt.Sscanf(s, "%d", &addr); err != nil {
		return 0, fmt.Errorf("invalid address: %s", s)
	}
	return addr, nil
}

// ErrQuit is returned by ExecuteCommand when the user asked to leave
// the debugger; front ends should stop their loop on this error.
var ErrQuit = fmt.Errorf("quit")

// ExecuteCommand parses and runs a single command line. An empty line
// repeats the last non-empty command, matching the teacher's CLI
// convention for "step again".
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History = append(d.History, cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}
	return d.handleCommand(strings.ToLower(parts[0]), parts[1:])
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "s", "step":
		return d.cmdStep(args)
	case "c", "continue":
		return d.cmdContinue(args)
	case "r", "reg", "registers":
		return d.cmdRegisters(args)
	case "m", "mem", "memory":
		return d.cmdMemory(args)
	case "set":
		return d.cmdSet(args)
	case "q", "quit", "exit":
		return ErrQuit
	case "help", "h", "?":
		return d.cmdHelp(args)
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// Printf writes formatted output to the output buffer a front end
// drains after each command.
func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

// Println writes a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	fmt.Fprintln(&d.Output, args...)
}

// GetOutput returns and clears the output buffer.
func (d *Debugger) GetOutput() string {
	s := d.Output.String()
	d.Output.Reset()
	return s
}
