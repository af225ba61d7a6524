package vm

// NumRegisters is the size of the Luz register file (spec.md §3).
const NumRegisters = 32

// CPU is the Luz architectural state: the register file, program
// counter, the hidden exception-return register, and the halt flag.
type CPU struct {
	R    [NumRegisters]uint32
	PC   uint32
	ERR  uint32 // exception-return register, restored to PC by ERET
	Halt bool

	// ExceptionVector is the address an exception transfers control to,
	// if one is configured (§9's note on CORE_REG_EXCEPTION_VECTOR).
	// HasVector false means "no handler installed": any exception halts
	// the CPU.
	ExceptionVector uint32
	HasVector       bool

	// Cause records the last exception taken, for the debug surface.
	Cause Cause

	Cycles uint64
}

// NewCPU creates a CPU with all state zeroed.
func NewCPU() *CPU {
	return &CPU{}
}

// Reset restores reset state: all registers zero, PC = entry, halt
// cleared (§4.6).
func (c *CPU) Reset(entry uint32) {
	for i := range c.R {
		c.R[i] = 0
	}
	c.PC = entry
	c.ERR = 0
	c.Halt = false
	c.Cause = CauseNone
	c.Cycles = 0
}

// GetRegister reads register n. R0 always reads 0 (§3's hard-wired-zero
// invariant).
func (c *CPU) GetRegister(n int) uint32 {
	if n == 0 {
		return 0
	}
	return c.R[n]
}

// SetRegister writes register n. Writes to R0 are discarded (§4.6 step
// 5).
func (c *CPU) SetRegister(n int, value uint32) {
	if n == 0 {
		return
	}
	c.R[n] = value
}
