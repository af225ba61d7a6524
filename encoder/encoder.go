// Package encoder packs resolved operand values into 32-bit Luz
// instruction words, enforcing the range and alignment checks spec.md
// §4.3 assigns to assembler pass 2. It knows nothing about symbols or
// relocations — the assembler resolves those first and hands encoder
// only concrete integers.
package encoder

import (
	"github.com/lookbusy1344/luz/isa"
	"github.com/lookbusy1344/luz/parser"
)

// fits16 reports whether v is representable in 16 bits, either as a
// signed or an unsigned quantity (spec.md §9's design note), and returns
// its low 16 bits.
func fits16(v int64) (uint32, bool) {
	if v >= -32768 && v <= 32767 {
		return uint32(uint16(int16(v))), true
	}
	if v >= 0 && v <= 65535 {
		return uint32(v), true
	}
	return 0, false
}

// EncodeR encodes a register-register instruction (FormatR/FormatRd).
func EncodeR(op isa.Opcode, regA, regB, rd int) uint32 {
	return isa.Encode(op, uint32(regA), uint32(regB), uint32(rd), 0)
}

// EncodeImmediate encodes a register-immediate instruction (FormatI),
// range-checking imm per the opcode's ImmKind.
func EncodeImmediate(op isa.Opcode, regA, regB int, imm int64, pos parser.Position) (uint32, error) {
	var field uint32
	switch op.Imm {
	case isa.ImmShift:
		field = uint32(imm) & 0x1F
	case isa.ImmZeroExtend:
		if imm < 0 || imm > 0xFFFF {
			v, ok := fits16(imm)
			if !ok {
				return 0, NewEncodingError(pos, "immediate %d out of 16-bit range for %s", imm, op.Mnemonic)
			}
			field = v
		} else {
			field = uint32(imm)
		}
	default:
		v, ok := fits16(imm)
		if !ok {
			return 0, NewEncodingError(pos, "immediate %d out of 16-bit range for %s", imm, op.Mnemonic)
		}
		field = v
	}
	return isa.Encode(op, uint32(regA), uint32(regB), 0, field), nil
}

// EncodeBranch16 encodes a 16-bit PC-relative branch (FormatBranch).
// offsetWords is (target - address-of-branch) / 4, per §4.3's fixed
// convention.
func EncodeBranch16(op isa.Opcode, regA, regB int, offsetWords int64, pos parser.Position) (uint32, error) {
	if offsetWords < -32768 || offsetWords > 32767 {
		return 0, NewEncodingError(pos, "branch offset %d words out of 16-bit signed range for %s", offsetWords, op.Mnemonic)
	}
	return isa.Encode(op, uint32(regA), uint32(regB), 0, uint32(uint16(int16(offsetWords)))), nil
}

// EncodeB encodes the unconditional B instruction (FormatJ, signed
// 26-bit word offset).
func EncodeB(op isa.Opcode, offsetWords int64, pos parser.Position) (uint32, error) {
	const lo, hi = -(1 << 25), (1 << 25) - 1
	if offsetWords < lo || offsetWords > hi {
		return 0, NewEncodingError(pos, "B offset %d words out of 26-bit signed range", offsetWords)
	}
	return isa.Encode(op, 0, 0, 0, uint32(offsetWords)&0x3FFFFFF), nil
}

// EncodeCall encodes CALL's absolute word index (FormatJ, unsigned
// 26-bit).
func EncodeCall(op isa.Opcode, targetAddr uint32, pos parser.Position) (uint32, error) {
	if targetAddr%4 != 0 {
		return 0, NewEncodingError(pos, "CALL target 0x%08X is not word-aligned", targetAddr)
	}
	index := targetAddr / 4
	if index > 0x3FFFFFF {
		return 0, NewEncodingError(pos, "CALL target 0x%08X does not fit in 26 unsigned bits", targetAddr)
	}
	return isa.Encode(op, 0, 0, 0, index), nil
}

// EncodeNone encodes a no-operand instruction (FormatNone): ERET, HALT.
func EncodeNone(op isa.Opcode) uint32 {
	return isa.Encode(op, 0, 0, 0, 0)
}
