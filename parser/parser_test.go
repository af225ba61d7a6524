package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/luz/parser"
)

func parseOK(t *testing.T, src string) []parser.Statement {
	t.Helper()
	p := parser.NewParser(src, "t.lasm")
	stmts, errs := p.Parse()
	require.Nil(t, errs, "unexpected parse errors")
	return stmts
}

func TestParseLabelAndInstruction(t *testing.T) {
	stmts := parseOK(t, "loop:\n  ADD $t0, $t1, $t2\n")
	require.Len(t, stmts, 2)

	assert.Equal(t, parser.StmtLabel, stmts[0].Kind)
	assert.Equal(t, "loop", stmts[0].Label)

	assert.Equal(t, parser.StmtInstruction, stmts[1].Kind)
	assert.Equal(t, "ADD", stmts[1].Mnemonic)
	require.Len(t, stmts[1].Operands2, 3)
	assert.Equal(t, parser.OperandRegister, stmts[1].Operands2[0].Kind)
}

func TestParseMemoryOperand(t *testing.T) {
	stmts := parseOK(t, "LW $t0, 4($sp)\n")
	require.Len(t, stmts, 1)
	op := stmts[0].Operands2[1]
	assert.Equal(t, parser.OperandMemory, op.Kind)
	assert.Equal(t, int64(4), op.Value)
	assert.Equal(t, 29, op.Base) // $sp
}

func TestParseHexAndBinaryLiterals(t *testing.T) {
	stmts := parseOK(t, ".define LIMIT, 0x10\nADDI $t0, $t0, 0b101\n")
	require.Len(t, stmts, 2)
	assert.Equal(t, int64(0x10), stmts[0].Operands[0].Value)
	assert.Equal(t, int64(0b101), stmts[1].Operands2[2].Value)
}

func TestParseUnterminatedStringIsError(t *testing.T) {
	p := parser.NewParser(".string \"oops\n", "t.lasm")
	_, errs := p.Parse()
	require.NotNil(t, errs)
	assert.True(t, errs.HasErrors())
}

func TestParseCaseInsensitiveMnemonic(t *testing.T) {
	stmts := parseOK(t, "add $t0, $t1, $t2\n")
	assert.Equal(t, "ADD", stmts[0].Mnemonic)
}
