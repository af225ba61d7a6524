// Package isa holds the single authoritative description of the Luz
// instruction set: mnemonics, numeric opcodes, operand shapes and
// encoding field layouts. The encoder, the disassembler and the CPU
// simulator all decode against this table so that the three never
// disagree about what a word means.
package isa

import "fmt"

// Format identifies the bit layout used to encode an instruction's
// operands. Every opcode in the table carries exactly one Format.
type Format int

const (
	// FormatR: opcode(31:26) RegA(25:21) RegB(20:16) Rd(15:11) unused(10:0)=0
	// Register-register arithmetic/logic. Rd always receives the result
	// (and, for MUL/DIV, Rd+1 receives the high half/remainder).
	FormatR Format = iota

	// FormatRd: opcode(31:26) unused(25:11)=0 Rd(10:6) unused(5:0)=0
	// A single register operand (JR).
	FormatRd

	// FormatI: opcode(31:26) RegA(25:21) RegB(20:16) Imm16(15:0)
	// Register-immediate arithmetic, loads and stores. For arithmetic
	// and LUI, RegB is the destination and RegA the source register. For
	// loads and stores, RegA is the plain (non-parenthesized) register
	// operand and RegB the base register inside the parens — see §4.6
	// note on stores.
	FormatI

	// FormatBranch: identical layout to FormatI; RegA and RegB are the two
	// compared registers and Imm16 is the scaled branch offset.
	FormatBranch

	// FormatJ: opcode(31:26) Imm26(25:0)
	// CALL's absolute word index, or B's signed PC-relative word offset.
	FormatJ

	// FormatNone: opcode(31:26) unused(25:0)=0 — ERET, HALT.
	FormatNone
)

// ImmKind describes how an instruction's immediate field participates in
// range checking and sign handling, per §4.3/§9.
type ImmKind int

const (
	ImmNone    ImmKind = iota
	ImmSigned          // sign-extended at execute time; accepted if representable in 16 bits signed or unsigned (§9)
	ImmUnsigned        // used as-is (LUI); accepted if representable in 16 bits signed or unsigned (§9)
	ImmZeroExtend      // immediate is zero-extended at execute time (ANDI/ORI)
	ImmShift           // only the low 5 bits are kept (SLLI/SRLI)
	ImmBranch16        // signed, pre-scaled by 4 (16-bit branches)
	ImmBranch26        // signed, pre-scaled by 4 (B)
	ImmCall26          // unsigned word index (CALL)
)

// Opcode is one entry in the ISA table: a tagged variant carrying its
// operand shape so that encode, decode and execute all switch over the
// same enumeration.
type Opcode struct {
	Mnemonic string
	Value    uint32 // 6-bit value occupying bits 31:26
	Format   Format
	Imm      ImmKind
}

// Numeric opcode values. Allocation is arbitrary but stable: once
// assigned, a value is never reused for a different mnemonic.
const (
	opADD = iota
	opSUB
	opAND
	opOR
	opNOR
	opMUL
	opMULU
	opDIV
	opDIVU
	opSLL
	opSRL
	opJR
	opADDI
	opSUBI
	opANDI
	opORI
	opSLLI
	opSRLI
	opLUI
	opLB
	opLBU
	opLH
	opLHU
	opLW
	opSB
	opSH
	opSW
	opBEQ
	opBNE
	opBLT
	opBLTU
	opBGE
	opBGEU
	opCALL
	opB
	opERET
	opHALT
)

// Table is the complete, immutable opcode table. Computed once at
// package init and never mutated afterward.
var Table = []Opcode{
	{"ADD", opADD, FormatR, ImmNone},
	{"SUB", opSUB, FormatR, ImmNone},
	{"AND", opAND, FormatR, ImmNone},
	{"OR", opOR, FormatR, ImmNone},
	{"NOR", opNOR, FormatR, ImmNone},
	{"MUL", opMUL, FormatR, ImmNone},
	{"MULU", opMULU, FormatR, ImmNone},
	{"DIV", opDIV, FormatR, ImmNone},
	{"DIVU", opDIVU, FormatR, ImmNone},
	{"SLL", opSLL, FormatR, ImmNone},
	{"SRL", opSRL, FormatR, ImmNone},
	{"JR", opJR, FormatRd, ImmNone},
	{"ADDI", opADDI, FormatI, ImmSigned},
	{"SUBI", opSUBI, FormatI, ImmSigned},
	{"ANDI", opANDI, FormatI, ImmZeroExtend},
	{"ORI", opORI, FormatI, ImmZeroExtend},
	{"SLLI", opSLLI, FormatI, ImmShift},
	{"SRLI", opSRLI, FormatI, ImmShift},
	{"LUI", opLUI, FormatI, ImmUnsigned},
	{"LB", opLB, FormatI, ImmSigned},
	{"LBU", opLBU, FormatI, ImmSigned},
	{"LH", opLH, FormatI, ImmSigned},
	{"LHU", opLHU, FormatI, ImmSigned},
	{"LW", opLW, FormatI, ImmSigned},
	{"SB", opSB, FormatI, ImmSigned},
	{"SH", opSH, FormatI, ImmSigned},
	{"SW", opSW, FormatI, ImmSigned},
	{"BEQ", opBEQ, FormatBranch, ImmBranch16},
	{"BNE", opBNE, FormatBranch, ImmBranch16},
	{"BLT", opBLT, FormatBranch, ImmBranch16},
	{"BLTU", opBLTU, FormatBranch, ImmBranch16},
	{"BGE", opBGE, FormatBranch, ImmBranch16},
	{"BGEU", opBGEU, FormatBranch, ImmBranch16},
	{"CALL", opCALL, FormatJ, ImmCall26},
	{"B", opB, FormatJ, ImmBranch26},
	{"ERET", opERET, FormatNone, ImmNone},
	{"HALT", opHALT, FormatNone, ImmNone},
}

var (
	byMnemonic = make(map[string]Opcode, len(Table))
	byValue    = make(map[uint32]Opcode, len(Table))
)

func init() {
	for _, op := range Table {
		byMnemonic[op.Mnemonic] = op
		byValue[op.Value] = op
	}
}

// Lookup returns the opcode entry for a mnemonic (case handled by the
// caller; LASM mnemonics are case-insensitive — see §6).
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := byMnemonic[mnemonic]
	return op, ok
}

// ByValue returns the opcode entry for a decoded 6-bit opcode value.
func ByValue(value uint32) (Opcode, bool) {
	op, ok := byValue[value]
	return op, ok
}

// IsMnemonic reports whether name names a real (non-pseudo) instruction.
func IsMnemonic(name string) bool {
	_, ok := byMnemonic[name]
	return ok
}

// Pseudo-instruction mnemonics recognized by the parser/assembler, per
// §4.2. NOT, NOP, MOVE, NEG, BEQZ, BNEZ, LLI and RET expand to exactly
// one real instruction (4 bytes); LI expands to two (8 bytes).
var PseudoMnemonics = map[string]bool{
	"NOT": true, "NOP": true, "MOVE": true, "NEG": true,
	"BEQZ": true, "BNEZ": true, "LLI": true, "LI": true, "RET": true,
}

// PseudoSize returns the number of bytes a pseudo-instruction reserves
// during assembler pass 1.
func PseudoSize(mnemonic string) (int, bool) {
	if mnemonic == "LI" {
		return 8, true
	}
	if PseudoMnemonics[mnemonic] {
		return 4, true
	}
	return 0, false
}

// RegisterAliases maps the textual register aliases LASM accepts to
// fixed register numbers. The mapping follows the well-known MIPS ABI
// convention, adopted here as the resolution of spec.md's register-alias
// open point: it is a stable, widely recognized scheme and keeps the
// assembler's alias table unsurprising to anyone who has read MIPS
// assembly before.
var RegisterAliases = map[string]int{
	"zero": 0, "at": 1,
	"v0": 2, "v1": 3,
	"a0": 4, "a1": 5, "a2": 6, "a3": 7,
	"t0": 8, "t1": 9, "t2": 10, "t3": 11, "t4": 12, "t5": 13, "t6": 14, "t7": 15,
	"s0": 16, "s1": 17, "s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"t8": 24, "t9": 25,
	"k0": 26, "k1": 27,
	"gp": 28, "sp": 29, "fp": 30,
	"ra": 31,
}

// RegisterName returns the canonical alias for a register number, or
// false if the register has no alias (it still always has a $rN form).
func RegisterName(n int) (string, bool) {
	for name, num := range RegisterAliases {
		if num == n {
			return name, true
		}
	}
	return "", false
}

const (
	// NumRegisters is the size of the register file (§3).
	NumRegisters = 32
	// ZeroReg is the hard-wired zero register.
	ZeroReg = 0
	// ReturnReg is the register CALL writes the return address into.
	ReturnReg = 31
	// ReservedReg is reserved per §3 (treated as an ordinary register for
	// Rd+1 purposes — see §9's open question on MUL/DIV wraparound).
	ReservedReg = 30
)

// Encode packs an opcode value and its operand fields into a 32-bit
// instruction word per the Format's bit layout.
func Encode(op Opcode, regA, regB, rd uint32, imm uint32) uint32 {
	word := op.Value << 26
	switch op.Format {
	case FormatR:
		word |= (regA & 0x1F) << 21
		word |= (regB & 0x1F) << 16
		word |= (rd & 0x1F) << 11
	case FormatRd:
		word |= (rd & 0x1F) << 6
	case FormatI, FormatBranch:
		word |= (regA & 0x1F) << 21
		word |= (regB & 0x1F) << 16
		word |= imm & 0xFFFF
	case FormatJ:
		word |= imm & 0x3FFFFFF
	case FormatNone:
		// no fields
	}
	return word
}

// Decoded is the result of splitting a 32-bit instruction word according
// to its opcode's Format.
type Decoded struct {
	Op    Opcode
	RegA  uint32
	RegB  uint32
	Rd    uint32
	Imm16 uint32 // raw 16-bit field, present for FormatI/FormatBranch
	Imm26 uint32 // raw 26-bit field, present for FormatJ
}

// Decode splits a 32-bit word into its opcode and raw operand fields.
// It returns an error for an opcode value with no table entry (§4.6,
// "undefined opcode").
func Decode(word uint32) (Decoded, error) {
	value := (word >> 26) & 0x3F
	op, ok := ByValue(value)
	if !ok {
		return Decoded{}, fmt.Errorf("undefined opcode 0x%02X", value)
	}
	d := Decoded{Op: op}
	switch op.Format {
	case FormatR:
		d.RegA = (word >> 21) & 0x1F
		d.RegB = (word >> 16) & 0x1F
		d.Rd = (word >> 11) & 0x1F
	case FormatRd:
		d.Rd = (word >> 6) & 0x1F
	case FormatI, FormatBranch:
		d.RegA = (word >> 21) & 0x1F
		d.RegB = (word >> 16) & 0x1F
		d.Imm16 = word & 0xFFFF
	case FormatJ:
		d.Imm26 = word & 0x3FFFFFF
	case FormatNone:
	}
	return d, nil
}

// SignExtend16 sign-extends a 16-bit field held in the low bits of a
// uint32 to a full 32-bit signed value.
func SignExtend16(v uint32) int32 {
	return int32(int16(uint16(v)))
}

// SignExtend26 sign-extends a 26-bit field held in the low bits of a
// uint32 to a full 32-bit signed value.
func SignExtend26(v uint32) int32 {
	v &= 0x3FFFFFF
	if v&(1<<25) != 0 {
		return int32(v | 0xFC000000)
	}
	return int32(v)
}
