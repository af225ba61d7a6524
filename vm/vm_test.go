package vm_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/luz/assembler"
	"github.com/lookbusy1344/luz/isa"
	"github.com/lookbusy1344/luz/linker"
	"github.com/lookbusy1344/luz/loader"
	"github.com/lookbusy1344/luz/object"
	"github.com/lookbusy1344/luz/peripheral"
	"github.com/lookbusy1344/luz/vm"
)

// buildVM assembles, links and loads a single translation unit, wiring
// hook (which may be nil) as the peripheral observer.
func buildVM(t *testing.T, src string, hook peripheral.Hook) *vm.VM {
	t.Helper()
	img, errs := assembler.Assemble(src, "t.lasm")
	if errs != nil {
		t.Fatalf("assemble: %s", errs.Error())
	}
	exe, err := linker.Link([]*object.Image{img})
	require.NoError(t, err)
	return loader.Load(exe, hook)
}

func encodeWord(t *testing.T, mnemonic string, a, b, rd, imm uint32) uint32 {
	t.Helper()
	op, ok := isa.Lookup(mnemonic)
	require.True(t, ok)
	return isa.Encode(op, a, b, rd, imm)
}

// --- unit-level architectural properties (spec.md §8) ---

func TestR0AlwaysReadsZero(t *testing.T) {
	cpu := vm.NewCPU()
	cpu.SetRegister(0, 0xDEADBEEF)
	assert.Equal(t, uint32(0), cpu.GetRegister(0))
}

func TestMemoryLittleEndianRoundTrip(t *testing.T) {
	mem := vm.NewMemory(nil)
	require.NoError(t, mem.Store32(0x1000, 0x01020304))
	assert.Equal(t, byte(0x04), mem.Load8(0x1000))
	assert.Equal(t, byte(0x03), mem.Load8(0x1001))
	assert.Equal(t, byte(0x02), mem.Load8(0x1002))
	assert.Equal(t, byte(0x01), mem.Load8(0x1003))

	v, err := mem.Load32(0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), v)
}

func TestUnwrittenMemoryReadsZero(t *testing.T) {
	mem := vm.NewMemory(nil)
	assert.Equal(t, byte(0), mem.Load8(0x4242))
}

func TestMisalignedLoad32IsRejected(t *testing.T) {
	mem := vm.NewMemory(nil)
	_, err := mem.Load32(0x1001)
	require.Error(t, err)
}

func TestPCAdvancesByFourAfterOrdinaryInstruction(t *testing.T) {
	mem := vm.NewMemory(nil)
	word := encodeWord(t, "ADD", 1, 2, 3, 0)
	mem.LoadBytes(0x00100000, []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)})

	machine := vm.NewVM(mem)
	machine.CPU.Reset(0x00100000)
	machine.Step()
	assert.Equal(t, uint32(0x00100004), machine.CPU.PC)
}

func TestHaltStopsAdvancingPC(t *testing.T) {
	mem := vm.NewMemory(nil)
	word := encodeWord(t, "HALT", 0, 0, 0, 0)
	mem.LoadBytes(0x00100000, []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)})

	machine := vm.NewVM(mem)
	machine.CPU.Reset(0x00100000)
	machine.Step()
	assert.True(t, machine.CPU.Halt)
	assert.Equal(t, uint32(0x00100000), machine.CPU.PC)

	machine.Step() // no-op once halted
	assert.Equal(t, uint32(0x00100000), machine.CPU.PC)
}

// --- end-to-end programs (spec.md §8) ---

func TestSumZeroToNineViaDebugQueue(t *testing.T) {
	src := `
.global asm_main
asm_main:
  LI $k0, 0xF0000
  ADDI $t1, $zero, 10
  ADDI $t0, $zero, 0
loop:
  SW $t0, 0($k0)
  ADDI $t0, $t0, 1
  BLTU $t0, $t1, loop
  HALT
`
	queue := peripheral.NewQueue(peripheral.DefaultAddress)
	machine := buildVM(t, src, queue)
	machine.Run(1000)
	require.True(t, machine.CPU.Halt)
	assert.Equal(t, vm.CauseNone, machine.CPU.Cause)

	want := []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, want, queue.Words())
	assert.Equal(t, uint32(10), machine.CPU.GetRegister(8)) // $t0
}

func TestArraySum(t *testing.T) {
	src := `
.global asm_main
.segment data
arr:
.word 1,2,3,4,5
.segment code
asm_main:
  LI $t1, arr
  ADDI $t0, $zero, 0
  ADDI $t2, $zero, 0
  ADDI $t3, $zero, 5
loop:
  BGEU $t2, $t3, done
  LW $t4, 0($t1)
  ADD $t0, $t0, $t4
  ADDI $t1, $t1, 4
  ADDI $t2, $t2, 1
  B loop
done:
  HALT
`
	machine := buildVM(t, src, nil)
	machine.Run(1000)
	require.True(t, machine.CPU.Halt)
	assert.Equal(t, uint32(15), machine.CPU.GetRegister(8)) // $t0
}

func TestUnsignedMultiplyHighHalf(t *testing.T) {
	src := `
.global asm_main
asm_main:
  LI $v0, 0x10000
  LI $v1, 0x10000
  MULU $a0, $v0, $v1
  HALT
`
	machine := buildVM(t, src, nil)
	machine.Run(100)
	require.True(t, machine.CPU.Halt)
	assert.Equal(t, uint32(0), machine.CPU.GetRegister(4)) // $a0, low half
	assert.Equal(t, uint32(1), machine.CPU.GetRegister(5)) // high half in Rd+1
}

func TestSignedBranchTakenUnsignedBranchNot(t *testing.T) {
	const body = `
.global asm_main
asm_main:
  LI $at, 0xFFFFFFFF
  ADDI $v0, $zero, 1
  %s $at, $v0, taken
  ADDI $t0, $zero, 0
  HALT
taken:
  ADDI $t0, $zero, 1
  HALT
`
	taken := buildVM(t, fmt.Sprintf(body, "BLT"), nil)
	taken.Run(100)
	require.True(t, taken.CPU.Halt)
	assert.Equal(t, uint32(1), taken.CPU.GetRegister(8), "BLT must treat 0xFFFFFFFF as -1 and take the branch")

	notTaken := buildVM(t, fmt.Sprintf(body, "BLTU"), nil)
	notTaken.Run(100)
	require.True(t, notTaken.CPU.Halt)
	assert.Equal(t, uint32(0), notTaken.CPU.GetRegister(8), "BLTU must treat 0xFFFFFFFF as huge and not take the branch")
}

func TestCallSetsReturnRegisterAndRetReturns(t *testing.T) {
	src := `
.global asm_main
asm_main:
  ADDI $a0, $zero, 42
  CALL copy
  ADDI $t1, $zero, 99
  HALT
copy:
  ADD $t0, $a0, $zero
  RET
`
	machine := buildVM(t, src, nil)

	machine.Step() // ADDI $a0, $zero, 42
	pcBeforeCall := machine.CPU.PC
	machine.Step() // CALL copy
	assert.Equal(t, pcBeforeCall+4, machine.CPU.GetRegister(31))

	machine.Run(100)
	require.True(t, machine.CPU.Halt)
	assert.Equal(t, uint32(42), machine.CPU.GetRegister(8))  // $t0, set inside copy
	assert.Equal(t, uint32(99), machine.CPU.GetRegister(9)) // $t1, only reached after RET returns
}

func TestMisalignedLoadTrapsWithoutMutatingDestination(t *testing.T) {
	src := ".global asm_main\nasm_main:\n  LW $t0, 1($zero)\n"
	machine := buildVM(t, src, nil)
	machine.Run(10)

	require.True(t, machine.CPU.Halt)
	assert.Equal(t, vm.CauseMisalignedAccess, machine.CPU.Cause)
	assert.Equal(t, uint32(0), machine.CPU.GetRegister(8)) // $t0 untouched
}
