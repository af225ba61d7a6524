package vm

import "github.com/lookbusy1344/luz/isa"

// VM couples a CPU and a Memory into one executable machine and runs
// the fetch-decode-execute cycle described in spec.md §4.6.
type VM struct {
	CPU    *CPU
	Memory *Memory
}

// NewVM creates a machine over the given memory, with a fresh CPU.
func NewVM(mem *Memory) *VM {
	return &VM{CPU: NewCPU(), Memory: mem}
}

// Step executes exactly one instruction. If the CPU is already halted,
// Step is a no-op (§8's "HALT stability" property).
func (vm *VM) Step() {
	if vm.CPU.Halt {
		return
	}

	pc := vm.CPU.PC
	if pc%4 != 0 {
		vm.raiseException(CauseMisalignedFetch, pc)
		return
	}
	word, err := vm.Memory.Load32(pc)
	if err != nil {
		vm.raiseException(CauseMisalignedFetch, pc)
		return
	}
	decoded, err := isa.Decode(word)
	if err != nil {
		vm.raiseException(CauseUndefinedOpcode, pc)
		return
	}

	vm.CPU.Cycles++
	if !vm.execute(decoded, pc) {
		return // exception raised; PC/Halt/Cause already set
	}
}

// Run steps up to maxSteps times, stopping early once the CPU halts.
// It returns the number of instructions actually executed.
func (vm *VM) Run(maxSteps int) int {
	n := 0
	for n < maxSteps && !vm.CPU.Halt {
		vm.Step()
		n++
	}
	return n
}

// execute performs one decoded instruction's effect. pc is the address
// the instruction was fetched from. It returns false if an exception
// was raised (the caller must not perform the default PC+4 advance —
// raiseException already set PC/Halt appropriately).
func (vm *VM) execute(d isa.Decoded, pc uint32) bool {
	cpu := vm.CPU
	nextPC := pc + 4 // overridden below by control-flow instructions

	switch d.Op.Mnemonic {
	case "ADD":
		cpu.SetRegister(int(d.Rd), cpu.GetRegister(int(d.RegA))+cpu.GetRegister(int(d.RegB)))
	case "SUB":
		cpu.SetRegister(int(d.Rd), cpu.GetRegister(int(d.RegA))-cpu.GetRegister(int(d.RegB)))
	case "AND":
		cpu.SetRegister(int(d.Rd), cpu.GetRegister(int(d.RegA))&cpu.GetRegister(int(d.RegB)))
	case "OR":
		cpu.SetRegister(int(d.Rd), cpu.GetRegister(int(d.RegA))|cpu.GetRegister(int(d.RegB)))
	case "NOR":
		cpu.SetRegister(int(d.Rd), ^(cpu.GetRegister(int(d.RegA)) | cpu.GetRegister(int(d.RegB))))
	case "SLL":
		amt := cpu.GetRegister(int(d.RegB)) & 0x1F
		cpu.SetRegister(int(d.Rd), cpu.GetRegister(int(d.RegA))<<amt)
	case "SRL":
		amt := cpu.GetRegister(int(d.RegB)) & 0x1F
		cpu.SetRegister(int(d.Rd), cpu.GetRegister(int(d.RegA))>>amt)

	case "MUL":
		a := int64(int32(cpu.GetRegister(int(d.RegA))))
		b := int64(int32(cpu.GetRegister(int(d.RegB))))
		vm.writeWide(int(d.Rd), uint64(a*b))
	case "MULU":
		a := uint64(cpu.GetRegister(int(d.RegA)))
		b := uint64(cpu.GetRegister(int(d.RegB)))
		vm.writeWide(int(d.Rd), a*b)
	case "DIV":
		b := int32(cpu.GetRegister(int(d.RegB)))
		if b == 0 {
			vm.raiseException(CauseDivideByZero, pc)
			return false
		}
		a := int32(cpu.GetRegister(int(d.RegA)))
		cpu.SetRegister(int(d.Rd), uint32(a/b))
		if d.Rd != 31 {
			cpu.SetRegister(int(d.Rd)+1, uint32(a%b))
		}
	case "DIVU":
		b := cpu.GetRegister(int(d.RegB))
		if b == 0 {
			vm.raiseException(CauseDivideByZero, pc)
			return false
		}
		a := cpu.GetRegister(int(d.RegA))
		cpu.SetRegister(int(d.Rd), a/b)
		if d.Rd != 31 {
			cpu.SetRegister(int(d.Rd)+1, a%b)
		}

	case "JR":
		nextPC = cpu.GetRegister(int(d.Rd))

	case "ADDI":
		cpu.SetRegister(int(d.RegB), cpu.GetRegister(int(d.RegA))+uint32(isa.SignExtend16(d.Imm16)))
	case "SUBI":
		cpu.SetRegister(int(d.RegB), cpu.GetRegister(int(d.RegA))-uint32(isa.SignExtend16(d.Imm16)))
	case "ANDI":
		cpu.SetRegister(int(d.RegB), cpu.GetRegister(int(d.RegA))&uint32(d.Imm16))
	case "ORI":
		cpu.SetRegister(int(d.RegB), cpu.GetRegister(int(d.RegA))|uint32(d.Imm16))
	case "SLLI":
		cpu.SetRegister(int(d.RegB), cpu.GetRegister(int(d.RegA))<<(d.Imm16&0x1F))
	case "SRLI":
		cpu.SetRegister(int(d.RegB), cpu.GetRegister(int(d.RegA))>>(d.Imm16&0x1F))
	case "LUI":
		cpu.SetRegister(int(d.RegB), d.Imm16<<16)

	case "LB", "LBU", "LH", "LHU", "LW":
		if !vm.execLoad(d, pc) {
			return false
		}
	case "SB", "SH", "SW":
		if !vm.execStore(d, pc) {
			return false
		}

	case "BEQ", "BNE", "BLT", "BLTU", "BGE", "BGEU":
		if branchTaken(d, cpu) {
			nextPC = pc + uint32(isa.SignExtend16(d.Imm16))*4
		}

	case "B":
		nextPC = pc + uint32(isa.SignExtend26(d.Imm26))*4

	case "CALL":
		cpu.SetRegister(31, pc+4)
		nextPC = d.Imm26 * 4

	case "ERET":
		nextPC = cpu.ERR

	case "HALT":
		cpu.Halt = true
		return true // PC intentionally not advanced
	}

	cpu.PC = nextPC
	return true
}

// writeWide splits a 64-bit multiply result into its Rd (low 32)/Rd+1
// (high 32) halves, discarding the high half when Rd is R31 (§4.6).
func (vm *VM) writeWide(rd int, bits uint64) {
	vm.CPU.SetRegister(rd, uint32(bits))
	if rd != 31 {
		vm.CPU.SetRegister(rd+1, uint32(bits>>32))
	}
}

func branchTaken(d isa.Decoded, cpu *CPU) bool {
	a, b := cpu.GetRegister(int(d.RegA)), cpu.GetRegister(int(d.RegB))
	switch d.Op.Mnemonic {
	case "BEQ":
		return a == b
	case "BNE":
		return a != b
	case "BLT":
		return int32(a) < int32(b)
	case "BLTU":
		return a < b
	case "BGE":
		return int32(a) >= int32(b)
	case "BGEU":
		return a >= b
	}
	return false
}

// execLoad performs LB/LBU/LH/LHU/LW. Register field roles follow the
// encoder's convention: RegA is the plain (destination) operand, RegB
// the base register inside the parens.
func (vm *VM) execLoad(d isa.Decoded, pc uint32) bool {
	addr := vm.CPU.GetRegister(int(d.RegB)) + uint32(isa.SignExtend16(d.Imm16))
	dest := int(d.RegA)

	switch d.Op.Mnemonic {
	case "LB":
		v := vm.Memory.Load8(addr)
		vm.CPU.SetRegister(dest, uint32(int32(int8(v))))
	case "LBU":
		v := vm.Memory.Load8(addr)
		vm.CPU.SetRegister(dest, uint32(v))
	case "LH":
		v, err := vm.Memory.Load16(addr)
		if err != nil {
			vm.raiseException(CauseMisalignedAccess, pc)
			return false
		}
		vm.CPU.SetRegister(dest, uint32(int32(int16(v))))
	case "LHU":
		v, err := vm.Memory.Load16(addr)
		if err != nil {
			vm.raiseException(CauseMisalignedAccess, pc)
			return false
		}
		vm.CPU.SetRegister(dest, uint32(v))
	case "LW":
		v, err := vm.Memory.Load32(addr)
		if err != nil {
			vm.raiseException(CauseMisalignedAccess, pc)
			return false
		}
		vm.CPU.SetRegister(dest, v)
	}
	return true
}

// execStore performs SB/SH/SW. RegA carries the value to store, RegB
// the base register (§4.6's note on the destination-field/base
// convention).
func (vm *VM) execStore(d isa.Decoded, pc uint32) bool {
	addr := vm.CPU.GetRegister(int(d.RegB)) + uint32(isa.SignExtend16(d.Imm16))
	value := vm.CPU.GetRegister(int(d.RegA))

	switch d.Op.Mnemonic {
	case "SB":
		vm.Memory.Store8(addr, byte(value))
	case "SH":
		if err := vm.Memory.Store16(addr, uint16(value)); err != nil {
			vm.raiseException(CauseMisalignedAccess, pc)
			return false
		}
	case "SW":
		if err := vm.Memory.Store32(addr, value); err != nil {
			vm.raiseException(CauseMisalignedAccess, pc)
			return false
		}
	}
	return true
}
