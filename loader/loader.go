// Package loader copies a linked executable image's segments into a
// fresh VM's memory and arms the CPU at the entry point, the final
// step between `luz link` and `luz run`/`luz debug`.
package loader

import (
	"github.com/lookbusy1344/luz/linker"
	"github.com/lookbusy1344/luz/peripheral"
	"github.com/lookbusy1344/luz/vm"
)

// Load builds a fresh VM, copies every segment of exe into its memory
// at the base address the linker assigned, and resets the CPU to
// exe.Entry. hook may be nil to disable the peripheral debug queue.
func Load(exe *linker.Executable, hook peripheral.Hook) *vm.VM {
	mem := vm.NewMemory(hook)
	for _, seg := range exe.Segments {
		mem.LoadBytes(seg.Base, seg.Data)
	}

	machine := vm.NewVM(mem)
	machine.CPU.Reset(exe.Entry)
	return machine
}
