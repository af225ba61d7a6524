package debugger

import (
	"strconv"

	"github.com/lookbusy1344/luz/disasm"
)

// cmdStep executes N instructions (default 1), printing the
// disassembly of each one as it retires.
func (d *Debugger) cmdStep(args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		n = v
	}

	for i := 0; i < n; i++ {
		if d.VM.CPU.Halt {
			d.Println("halted")
			return nil
		}
		pc := d.VM.CPU.PC
		word, err := d.VM.Memory.Load32(pc)
		if err == nil {
			d.Printf("0x%08X: %s\n", pc, disasm.Disassemble(word, pc, d.ShowAlias))
		}
		d.VM.Step()
	}
	return nil
}

// cmdContinue runs until the CPU halts or MaxCycles is exhausted.
func (d *Debugger) cmdContinue(args []string) error {
	limit := d.MaxCycles
	if limit <= 0 {
		limit = 10_000_000
	}
	ran := d.VM.Run(limit)
	if d.VM.CPU.Halt {
		d.Printf("halted after %d instructions, cause=%s\n", ran, d.VM.CPU.Cause)
		return nil
	}
	d.Printf("stopped after %d instructions (cycle limit)\n", ran)
	return nil
}

// cmdRegisters dumps the full register file plus PC and exception
// state.
func (d *Debugger) cmdRegisters(args []string) error {
	for i := 0; i < vmNumRegisters; i += 4 {
		d.Printf("r%-2d=0x%08X  r%-2d=0x%08X  r%-2d=0x%08X  r%-2d=0x%08X\n",
			i, d.VM.CPU.GetRegister(i),
			i+1, d.VM.CPU.GetRegister(i+1),
			i+2, d.VM.CPU.GetRegister(i+2),
			i+3, d.VM.CPU.GetRegister(i+3))
	}
	d.Printf("pc =0x%08X  err=0x%08X  cause=%s  halt=%v\n", d.VM.CPU.PC, d.VM.CPU.ERR, d.VM.CPU.Cause, d.VM.CPU.Halt)
	mem := d.VM.Memory
	d.Printf("mem: accesses=%d reads=%d writes=%d\n", mem.AccessCount, mem.ReadCount, mem.WriteCount)
	return nil
}

// cmdMemory dumps N bytes starting at ADDR, 16 bytes per row.
func (d *Debugger) cmdMemory(args []string) error {
	if len(args) < 2 {
		return errUsage("m ADDR N")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return err
	}
	if n < 0 || int64(n) > 0xFFFFFFFF {
		return errUsage("m ADDR N (N must be between 0 and 4294967295)")
	}

	data := d.VM.Memory.Bytes(addr, uint32(n))
	for row := 0; row < len(data); row += 16 {
		end := row + 16
		if end > len(data) {
			end = len(data)
		}
		d.Printf("0x%08X: ", addr+uint32(row))
		for _, b := range data[row:end] {
			d.Printf("%02X ", b)
		}
		d.Println()
	}
	return nil
}

// cmdSet handles the "set alias 0|1" register-display toggle.
func (d *Debugger) cmdSet(args []string) error {
	if len(args) != 2 || args[0] != "alias" {
		return errUsage("set alias 0|1")
	}
	switch args[1] {
	case "0":
		d.ShowAlias = false
	case "1":
		d.ShowAlias = true
	default:
		return errUsage("set alias 0|1")
	}
	return nil
}

// cmdHelp prints the minimal command surface spec.md §6 names.
func (d *Debugger) cmdHelp(args []string) error {
	d.Println("s [N]          step N instructions (default 1)")
	d.Println("c              continue until halt")
	d.Println("r              dump registers")
	d.Println("m ADDR N       dump N bytes starting at ADDR")
	d.Println("set alias 0|1  toggle symbolic register names")
	d.Println("q              quit")
	d.Println("help           this message")
	return nil
}

const vmNumRegisters = 32

func errUsage(usage string) error {
	return &usageError{usage}
}

type usageError struct{ usage string }

func (e *usageError) Error() string { return "usage: " + e.usage }
