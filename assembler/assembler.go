// Package assembler implements the two-pass LASM assembler described in
// spec.md §4.3: pass 1 binds labels and .define constants and lays out
// segment cursors (expanding pseudo-instructions to their reserved
// size); pass 2 encodes every real instruction and data directive,
// emitting a relocation wherever an operand names a symbol whose
// address isn't known until link time.
package assembler

import (
	"github.com/lookbusy1344/luz/encoder"
	"github.com/lookbusy1344/luz/isa"
	"github.com/lookbusy1344/luz/object"
	"github.com/lookbusy1344/luz/parser"
)

// defaultSegment is the segment a translation unit starts in before any
// .segment directive switches it.
const defaultSegment = "code"

// Assemble parses and assembles src, producing an object image ready for
// the linker. A non-nil ErrorList means assembly failed; img is nil in
// that case.
func Assemble(src, filename string) (*object.Image, *parser.ErrorList) {
	p := parser.NewParser(src, filename)
	stmts, errs := p.Parse()
	if errs != nil {
		return nil, errs
	}

	a := &assembling{
		defines:   make(map[string]int64),
		seen:      make(map[string]int64),
		labels:    make(map[string]*object.Symbol),
		globals:   make(map[string]bool),
		globalPos: make(map[string]parser.Position),
		cursor:    map[string]uint32{defaultSegment: 0},
	}
	a.passOne(stmts)
	if a.errs.HasErrors() {
		return nil, &a.errs
	}

	img := object.NewImage(filename)
	a.passTwo(img, stmts)
	if a.errs.HasErrors() {
		return nil, &a.errs
	}
	for name, sym := range a.labels {
		img.Symbols[name] = sym
	}
	return img, nil
}

type assembling struct {
	errs      parser.ErrorList
	defines   map[string]int64 // full table, built by passOne; read-only in passTwo
	seen      map[string]int64 // defines bound so far, rebuilt as passTwo walks the source
	labels    map[string]*object.Symbol
	globals   map[string]bool
	globalPos map[string]parser.Position
	cursor    map[string]uint32
	segment   string // active segment during passOne
}

// resolveConst resolves an operand that must be known at assemble time
// (a .define value, an .alloc count, a .byte/.string width) against
// table: a literal, or a .define name already bound in table. Labels
// are never valid here. .define's own value uses a.defines (passOne's
// incremental table); every other use during passTwo uses a.seen, so a
// .define occurring later in the source is not visible yet, enforcing
// §4's "forward references disallowed" rule.
func (a *assembling) resolveConst(op parser.Operand, table map[string]int64) (int64, bool) {
	if op.HasValue {
		return op.Value, true
	}
	v, ok := table[op.Name]
	return v, ok
}

func (a *assembling) passOne(stmts []parser.Statement) {
	a.segment = defaultSegment
	for _, stmt := range stmts {
		switch stmt.Kind {
		case parser.StmtLabel:
			if _, dup := a.labels[stmt.Label]; dup {
				a.errs.Add(parser.NewError(stmt.Pos, parser.ErrorDuplicateLabel, "label "+stmt.Label+" redefined"))
				continue
			}
			a.labels[stmt.Label] = &object.Symbol{Name: stmt.Label, Segment: a.segment, Offset: a.cursor[a.segment]}

		case parser.StmtDirective:
			a.passOneDirective(stmt)

		case parser.StmtInstruction:
			a.cursor[a.segment] += a.instructionSize(stmt)
		}
	}

	for name := range a.globals {
		sym, ok := a.labels[name]
		if !ok {
			a.errs.Add(parser.NewError(a.globalPos[name], parser.ErrorUndefinedSymbol, "global "+name+" has no matching label in this file"))
			continue
		}
		sym.Global = true
	}
}

func (a *assembling) instructionSize(stmt parser.Statement) uint32 {
	if n, ok := isa.PseudoSize(stmt.Mnemonic); ok {
		return uint32(n)
	}
	if isa.IsMnemonic(stmt.Mnemonic) {
		return 4
	}
	a.errs.Add(parser.NewError(stmt.Pos, parser.ErrorUnknownMnemonic, "unknown mnemonic "+stmt.Mnemonic))
	return 0
}

func (a *assembling) passOneDirective(stmt parser.Statement) {
	switch stmt.Directive {
	case ".segment":
		a.segment = stmt.Args[0]
		if _, ok := a.cursor[a.segment]; !ok {
			a.cursor[a.segment] = 0
		}

	case ".global":
		name := stmt.Args[0]
		if a.globals[name] {
			a.errs.Add(parser.NewError(stmt.Pos, parser.ErrorDuplicateGlobal, "global "+name+" declared twice"))
			return
		}
		a.globals[name] = true
		a.globalPos[name] = stmt.Pos

	case ".define":
		name := stmt.Args[0]
		if _, dup := a.defines[name]; dup {
			a.errs.Add(parser.NewError(stmt.Pos, parser.ErrorDuplicateDefine, ".define "+name+" redefined"))
			return
		}
		v, ok := a.resolveConst(stmt.Operands[0], a.defines)
		if !ok {
			a.errs.Add(parser.NewError(stmt.Pos, parser.ErrorUndefinedSymbol, ".define "+name+" value must be a literal or an earlier .define"))
			return
		}
		a.defines[name] = v

	case ".alloc":
		v, ok := a.resolveConst(stmt.Operands[0], a.defines)
		if !ok {
			a.errs.Add(parser.NewError(stmt.Pos, parser.ErrorUndefinedSymbol, ".alloc count must be a literal or a .define"))
			return
		}
		a.cursor[a.segment] += uint32(v)

	case ".byte":
		a.cursor[a.segment] += uint32(len(stmt.Operands))

	case ".word":
		a.cursor[a.segment] += uint32(4 * len(stmt.Operands))

	case ".string":
		a.cursor[a.segment] += uint32(len(stmt.Args[0]) + 1)
	}
}

func appendWord(seg *object.Segment, word uint32) {
	seg.Data = append(seg.Data, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
}

func (a *assembling) passTwo(img *object.Image, stmts []parser.Statement) {
	a.segment = defaultSegment
	for _, stmt := range stmts {
		switch stmt.Kind {
		case parser.StmtLabel:
			// Address already recorded in passOne.
		case parser.StmtDirective:
			a.emitDirective(img, stmt)
		case parser.StmtInstruction:
			a.emitInstruction(img, stmt)
		}
	}
}

func (a *assembling) emitDirective(img *object.Image, stmt parser.Statement) {
	switch stmt.Directive {
	case ".segment":
		a.segment = stmt.Args[0]
	case ".global":
		// Fully handled in passOne.
	case ".define":
		// Value already validated in passOne; bind it into the
		// pass-two visibility table at this point in the source.
		name := stmt.Args[0]
		a.seen[name] = a.defines[name]
	case ".alloc":
		v, _ := a.resolveConst(stmt.Operands[0], a.seen)
		seg := img.Segment(a.segment)
		seg.Data = append(seg.Data, make([]byte, v)...)
	case ".byte":
		seg := img.Segment(a.segment)
		for _, op := range stmt.Operands {
			v, ok := a.resolveConst(op, a.seen)
			if !ok {
				a.errs.Add(parser.NewError(op.Pos, parser.ErrorUndefinedSymbol, ".byte operand must be a constant"))
				continue
			}
			if v < -128 || v > 255 {
				a.errs.Add(parser.NewError(op.Pos, parser.ErrorRangeOverflow, "value does not fit in a byte"))
				continue
			}
			seg.Data = append(seg.Data, byte(v))
		}
	case ".word":
		seg := img.Segment(a.segment)
		for _, op := range stmt.Operands {
			if v, ok := a.resolveConst(op, a.seen); ok {
				appendWord(seg, uint32(v))
				continue
			}
			img.Relocations = append(img.Relocations, &object.Relocation{
				Segment: a.segment, Offset: seg.Len(), Shape: object.FieldWord32, Symbol: op.Name,
			})
			appendWord(seg, 0)
		}
	case ".string":
		seg := img.Segment(a.segment)
		seg.Data = append(seg.Data, []byte(stmt.Args[0])...)
		seg.Data = append(seg.Data, 0)
	}
}

func (a *assembling) emitInstruction(img *object.Image, stmt parser.Statement) {
	if isa.IsMnemonic(stmt.Mnemonic) {
		a.emitReal(img, stmt.Mnemonic, stmt.Operands2, stmt.Pos)
		return
	}
	reals, err := expandPseudo(stmt)
	if err != nil {
		a.errs.Add(err)
		return
	}
	for _, r := range reals {
		a.emitReal(img, r.Mnemonic, r.Operands, stmt.Pos)
	}
}

func wantReg(op parser.Operand) (int, bool) {
	if op.Kind != parser.OperandRegister {
		return 0, false
	}
	return op.Reg, true
}

// resolveImm resolves an operand that is the immediate/offset half of a
// real instruction: a literal, a .define constant already bound at
// this point in the source, or (if neither) a symbol name whose
// address is left to the linker. A name that names a .define
// somewhere in the file but isn't bound yet (used before its
// .define) is a forward reference, rejected here at assemble time
// rather than left to surface as a confusing unresolved-symbol error
// at link time.
func (a *assembling) resolveImm(op parser.Operand, pos parser.Position) (value int64, symbol string, isSymbol bool) {
	if op.HasValue {
		return op.Value, "", false
	}
	if v, ok := a.seen[op.Name]; ok {
		return v, "", false
	}
	if _, ok := a.defines[op.Name]; ok {
		a.errs.Add(parser.NewError(pos, parser.ErrorUndefinedSymbol, "use of undefined .define constant "+op.Name))
		return 0, "", false
	}
	return 0, op.Name, true
}

// emitReal encodes one real instruction (never a pseudo-op) and appends
// it to the active segment, emitting a relocation in place of any
// operand that names an unresolved symbol.
func (a *assembling) emitReal(img *object.Image, mnemonic string, ops []parser.Operand, pos parser.Position) {
	op, ok := isa.Lookup(mnemonic)
	if !ok {
		a.errs.Add(parser.NewError(pos, parser.ErrorUnknownMnemonic, "unknown mnemonic "+mnemonic))
		return
	}
	seg := img.Segment(a.segment)
	wordOffset := seg.Len()
	addReloc := func(shape object.FieldShape, symbol string) {
		img.Relocations = append(img.Relocations, &object.Relocation{
			Segment: a.segment, Offset: wordOffset, Shape: shape, Symbol: symbol,
		})
	}
	bad := func(msg string) {
		a.errs.Add(parser.NewError(pos, parser.ErrorWrongOperand, mnemonic+": "+msg))
	}

	switch op.Format {
	case isa.FormatR:
		if len(ops) != 3 {
			bad("expects 3 register operands")
			return
		}
		rd, ok1 := wantReg(ops[0])
		rs, ok2 := wantReg(ops[1])
		rt, ok3 := wantReg(ops[2])
		if !ok1 || !ok2 || !ok3 {
			bad("all operands must be registers")
			return
		}
		appendWord(seg, encoder.EncodeR(op, rs, rt, rd))

	case isa.FormatRd:
		if len(ops) != 1 {
			bad("expects 1 register operand")
			return
		}
		rd, ok1 := wantReg(ops[0])
		if !ok1 {
			bad("operand must be a register")
			return
		}
		appendWord(seg, encoder.EncodeR(op, 0, 0, rd))

	case isa.FormatI:
		a.emitFormatI(seg, op, mnemonic, ops, pos, wordOffset, addReloc, bad)

	case isa.FormatBranch:
		if len(ops) != 3 {
			bad("expects two registers and a target")
			return
		}
		regA, ok1 := wantReg(ops[0])
		regB, ok2 := wantReg(ops[1])
		if !ok1 || !ok2 {
			bad("first two operands must be registers")
			return
		}
		value, symbol, isSym := a.resolveImm(ops[2], pos)
		if isSym {
			addReloc(object.FieldBranch16, symbol)
			appendWord(seg, isa.Encode(op, uint32(regA), uint32(regB), 0, 0))
			return
		}
		word, encErr := encoder.EncodeBranch16(op, regA, regB, value, pos)
		if encErr != nil {
			a.errs.Add(parser.NewError(pos, parser.ErrorRangeOverflow, encErr.Error()))
			return
		}
		appendWord(seg, word)

	case isa.FormatJ:
		if len(ops) != 1 {
			bad("expects a single target operand")
			return
		}
		value, symbol, isSym := a.resolveImm(ops[0], pos)
		if isSym {
			shape := object.FieldBranch26
			if mnemonic == "CALL" {
				shape = object.FieldCall26
			}
			addReloc(shape, symbol)
			appendWord(seg, isa.Encode(op, 0, 0, 0, 0))
			return
		}
		var word uint32
		var encErr error
		if mnemonic == "CALL" {
			word, encErr = encoder.EncodeCall(op, uint32(value), pos)
		} else {
			word, encErr = encoder.EncodeB(op, value, pos)
		}
		if encErr != nil {
			a.errs.Add(parser.NewError(pos, parser.ErrorRangeOverflow, encErr.Error()))
			return
		}
		appendWord(seg, word)

	case isa.FormatNone:
		if len(ops) != 0 {
			bad("takes no operands")
			return
		}
		appendWord(seg, encoder.EncodeNone(op))
	}
}

func (a *assembling) emitFormatI(
	seg *object.Segment, op isa.Opcode, mnemonic string, ops []parser.Operand, pos parser.Position,
	wordOffset uint32, addReloc func(object.FieldShape, string), bad func(string),
) {
	switch mnemonic {
	case "LUI":
		if len(ops) != 2 {
			bad("expects a destination register and an immediate")
			return
		}
		dest, ok := wantReg(ops[0])
		if !ok {
			bad("first operand must be a register")
			return
		}
		value, symbol, isSym := a.resolveImm(ops[1], pos)
		if isSym {
			addReloc(object.FieldHi16, symbol)
			appendWord(seg, isa.Encode(op, 0, uint32(dest), 0, 0))
			return
		}
		word, encErr := encoder.EncodeImmediate(op, 0, dest, value, pos)
		if encErr != nil {
			a.errs.Add(parser.NewError(pos, parser.ErrorRangeOverflow, encErr.Error()))
			return
		}
		appendWord(seg, word)

	case "LB", "LBU", "LH", "LHU", "LW":
		if len(ops) != 2 || ops[1].Kind != parser.OperandMemory {
			bad("expects a destination register and offset(base)")
			return
		}
		dest, ok := wantReg(ops[0])
		if !ok {
			bad("first operand must be a register")
			return
		}
		a.emitMemForm(seg, op, ops[1], dest, pos, wordOffset, addReloc)

	case "SB", "SH", "SW":
		if len(ops) != 2 || ops[1].Kind != parser.OperandMemory {
			bad("expects a value register and offset(base)")
			return
		}
		value, ok := wantReg(ops[0])
		if !ok {
			bad("first operand must be a register")
			return
		}
		a.emitMemForm(seg, op, ops[1], value, pos, wordOffset, addReloc)

	default: // ADDI, SUBI, ANDI, ORI, SLLI, SRLI
		if len(ops) != 3 {
			bad("expects destination, source, immediate")
			return
		}
		dest, ok1 := wantReg(ops[0])
		src, ok2 := wantReg(ops[1])
		if !ok1 || !ok2 {
			bad("first two operands must be registers")
			return
		}
		value, symbol, isSym := a.resolveImm(ops[2], pos)
		if isSym {
			if op.Imm == isa.ImmShift {
				bad("shift amount must be a constant")
				return
			}
			shape := object.FieldImm16
			if mnemonic == "ORI" {
				shape = object.FieldLo16
			}
			addReloc(shape, symbol)
			appendWord(seg, isa.Encode(op, uint32(src), uint32(dest), 0, 0))
			return
		}
		word, encErr := encoder.EncodeImmediate(op, src, dest, value, pos)
		if encErr != nil {
			a.errs.Add(parser.NewError(pos, parser.ErrorRangeOverflow, encErr.Error()))
			return
		}
		appendWord(seg, word)
	}
}

// emitMemForm encodes a load or store's offset(base) operand. plainReg
// is the already-resolved plain (non-parenthesized) register operand —
// the destination for a load, the value for a store — and always
// occupies regA; the base register inside the parens always occupies
// regB, per §4.6's note that the destination-register field carries the
// base for stores (and, symmetrically, for loads).
func (a *assembling) emitMemForm(
	seg *object.Segment, op isa.Opcode, mem parser.Operand, plainReg int,
	pos parser.Position, wordOffset uint32, addReloc func(object.FieldShape, string),
) {
	regA := uint32(plainReg)
	regB := uint32(mem.Base)

	offsetOp := mem
	offsetOp.Kind = parser.OperandImmediate
	value, symbol, isSym := a.resolveImm(offsetOp, pos)
	if isSym {
		addReloc(object.FieldImm16, symbol)
		appendWord(seg, isa.Encode(op, regA, regB, 0, 0))
		return
	}
	word, encErr := encoder.EncodeImmediate(op, int(regA), int(regB), value, pos)
	if encErr != nil {
		a.errs.Add(parser.NewError(pos, parser.ErrorRangeOverflow, encErr.Error()))
		return
	}
	appendWord(seg, word)
}
