package assembler

import "github.com/lookbusy1344/luz/parser"

// realInstr is one real instruction produced by expanding a pseudo-op.
type realInstr struct {
	Mnemonic string
	Operands []parser.Operand
}

func zeroReg(pos parser.Position) parser.Operand {
	return parser.Operand{Kind: parser.OperandRegister, Pos: pos, Reg: 0}
}

// expandPseudo lowers a pseudo-instruction statement into one or two real
// instructions (§4.2). Only the operand count is checked here (reported
// as ErrorWrongOperand); operand kinds are checked by emitReal when the
// expanded real instructions are encoded.
func expandPseudo(stmt parser.Statement) ([]realInstr, *parser.Error) {
	pos := stmt.Pos
	ops := stmt.Operands2
	z := zeroReg(pos)

	need := func(n int) *parser.Error {
		if len(ops) != n {
			return parser.NewError(pos, parser.ErrorWrongOperand,
				stmt.Mnemonic+" expects "+itoa(n)+" operand(s)")
		}
		return nil
	}

	switch stmt.Mnemonic {
	case "NOP":
		if err := need(0); err != nil {
			return nil, err
		}
		return []realInstr{{"SLL", []parser.Operand{z, z, z}}}, nil

	case "NOT":
		if err := need(2); err != nil {
			return nil, err
		}
		return []realInstr{{"NOR", []parser.Operand{ops[0], ops[1], z}}}, nil

	case "MOVE":
		if err := need(2); err != nil {
			return nil, err
		}
		return []realInstr{{"ADD", []parser.Operand{ops[0], ops[1], z}}}, nil

	case "NEG":
		if err := need(2); err != nil {
			return nil, err
		}
		return []realInstr{{"SUB", []parser.Operand{ops[0], z, ops[1]}}}, nil

	case "BEQZ":
		if err := need(2); err != nil {
			return nil, err
		}
		return []realInstr{{"BEQ", []parser.Operand{ops[0], z, ops[1]}}}, nil

	case "BNEZ":
		if err := need(2); err != nil {
			return nil, err
		}
		return []realInstr{{"BNE", []parser.Operand{ops[0], z, ops[1]}}}, nil

	case "LLI":
		if err := need(2); err != nil {
			return nil, err
		}
		return []realInstr{{"ORI", []parser.Operand{ops[0], ops[0], ops[1]}}}, nil

	case "LI":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, imm := ops[0], ops[1]
		hi, lo := imm, imm
		if imm.HasValue {
			// A concrete constant must be split into halves here: LUI's
			// own encoding takes its operand as-is (already the upper
			// 16 bits), it does not shift a full value for us. A
			// symbolic operand is left untouched — emitFormatI resolves
			// it via FieldHi16/FieldLo16 relocations, which do the
			// shift at link time instead.
			hi.Value = (imm.Value >> 16) & 0xFFFF
			lo.Value = imm.Value & 0xFFFF
		}
		return []realInstr{
			{"LUI", []parser.Operand{rd, hi}},
			{"ORI", []parser.Operand{rd, rd, lo}},
		}, nil

	case "RET":
		if err := need(0); err != nil {
			return nil, err
		}
		ra := parser.Operand{Kind: parser.OperandRegister, Pos: pos, Reg: 31}
		return []realInstr{{"JR", []parser.Operand{ra}}}, nil
	}

	return nil, parser.NewError(pos, parser.ErrorUnknownMnemonic, "unknown pseudo-instruction "+stmt.Mnemonic)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [...]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = digits[n%10]
		n /= 10
	}
	return string(buf[i:])
}
