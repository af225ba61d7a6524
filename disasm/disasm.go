// Package disasm reverses the encoder: given a 32-bit instruction word
// and the address it lives at, it produces the canonical LASM mnemonic
// form (spec.md §4.7), for the debug surface's "next instruction" view.
package disasm

import (
	"fmt"
	"strings"

	"github.com/lookbusy1344/luz/isa"
)

// Disassemble decodes word (fetched from address addr) into its textual
// form. showAlias selects register display: true prefers symbolic names
// ($sp, $ra, ...), false always prints $rN.
func Disassemble(word uint32, addr uint32, showAlias bool) string {
	d, err := isa.Decode(word)
	if err != nil {
		return fmt.Sprintf(".word 0x%08X  # undefined opcode", word)
	}

	reg := func(n uint32) string {
		if showAlias {
			if name, ok := isa.RegisterName(int(n)); ok {
				return "$" + name
			}
		}
		return fmt.Sprintf("$r%d", n)
	}

	mnemonic := strings.ToLower(d.Op.Mnemonic)

	switch d.Op.Format {
	case isa.FormatR:
		return fmt.Sprintf("%s %s,%s,%s", mnemonic, reg(d.Rd), reg(d.RegA), reg(d.RegB))

	case isa.FormatRd:
		return fmt.Sprintf("%s %s", mnemonic, reg(d.Rd))

	case isa.FormatI:
		return disasmFormatI(d, mnemonic, reg)

	case isa.FormatBranch:
		offset := isa.SignExtend16(d.Imm16)
		target := int64(addr) + int64(offset)*4
		return fmt.Sprintf("%s %s,%s,0x%08X", mnemonic, reg(d.RegA), reg(d.RegB), uint32(target))

	case isa.FormatJ:
		if d.Op.Mnemonic == "CALL" {
			return fmt.Sprintf("%s 0x%08X", mnemonic, d.Imm26*4)
		}
		offset := isa.SignExtend26(d.Imm26)
		target := int64(addr) + int64(offset)*4
		return fmt.Sprintf("%s 0x%08X", mnemonic, uint32(target))

	case isa.FormatNone:
		return mnemonic
	}

	return mnemonic
}

func disasmFormatI(d isa.Decoded, mnemonic string, reg func(uint32) string) string {
	switch d.Op.Mnemonic {
	case "LUI":
		return fmt.Sprintf("%s %s,0x%04X", mnemonic, reg(d.RegB), d.Imm16)
	case "LB", "LBU", "LH", "LHU", "LW":
		off := isa.SignExtend16(d.Imm16)
		return fmt.Sprintf("%s %s,%d(%s)", mnemonic, reg(d.RegA), off, reg(d.RegB))
	case "SB", "SH", "SW":
		off := isa.SignExtend16(d.Imm16)
		return fmt.Sprintf("%s %s,%d(%s)", mnemonic, reg(d.RegA), off, reg(d.RegB))
	case "ANDI", "ORI":
		return fmt.Sprintf("%s %s,%s,0x%04X", mnemonic, reg(d.RegB), reg(d.RegA), d.Imm16)
	case "SLLI", "SRLI":
		return fmt.Sprintf("%s %s,%s,%d", mnemonic, reg(d.RegB), reg(d.RegA), d.Imm16&0x1F)
	default: // ADDI, SUBI
		off := isa.SignExtend16(d.Imm16)
		return fmt.Sprintf("%s %s,%s,%d", mnemonic, reg(d.RegB), reg(d.RegA), off)
	}
}
