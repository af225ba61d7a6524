package assembler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/luz/assembler"
	"github.com/lookbusy1344/luz/isa"
	"github.com/lookbusy1344/luz/object"
)

func assembleOK(t *testing.T, src string) *object.Image {
	t.Helper()
	img, errs := assembler.Assemble(src, "t.lasm")
	if errs != nil {
		t.Fatalf("unexpected assembly errors: %s", errs.Error())
	}
	return img
}

func TestIdempotentAssembly(t *testing.T) {
	src := ".global asm_main\nasm_main:\n  ADD $t0, $t1, $t2\n  HALT\n"
	img1 := assembleOK(t, src)
	img2 := assembleOK(t, src)

	seg1 := img1.Segment("code")
	seg2 := img2.Segment("code")
	assert.Equal(t, seg1.Data, seg2.Data)
}

func TestLabelAlwaysProducesRelocation(t *testing.T) {
	// Even a same-file branch target can't be resolved until link time,
	// since segment base addresses aren't known yet.
	src := "top:\n  BEQ $t0, $t1, top\n"
	img := assembleOK(t, src)
	require.Len(t, img.Relocations, 1)
	assert.Equal(t, "top", img.Relocations[0].Symbol)
	assert.Equal(t, object.FieldBranch16, img.Relocations[0].Shape)
}

func TestDefineMustPrecedeUse(t *testing.T) {
	_, errs := assembler.Assemble("ADDI $t0, $t0, LIMIT\n.define LIMIT, 4\n", "t.lasm")
	require.NotNil(t, errs)
	assert.True(t, errs.HasErrors())
}

func TestDuplicateLabelIsError(t *testing.T) {
	_, errs := assembler.Assemble("foo:\nfoo:\n  HALT\n", "t.lasm")
	require.NotNil(t, errs)
}

func TestUndefinedGlobalIsError(t *testing.T) {
	_, errs := assembler.Assemble(".global asm_main\nHALT\n", "t.lasm")
	require.NotNil(t, errs)
}

func TestPseudoLIExpandsToHiLoPairWithRelocations(t *testing.T) {
	img := assembleOK(t, ".global asm_main\nasm_main:\n  LI $t0, target\ntarget:\n  HALT\n")
	require.Len(t, img.Relocations, 2)
	assert.Equal(t, object.FieldHi16, img.Relocations[0].Shape)
	assert.Equal(t, object.FieldLo16, img.Relocations[1].Shape)
	assert.Equal(t, "target", img.Relocations[0].Symbol)
}

func TestPseudoNopExpandsToSLLZero(t *testing.T) {
	img := assembleOK(t, "NOP\n")
	seg := img.Segment("code")
	require.Equal(t, uint32(4), seg.Len())

	word := uint32(seg.Data[0]) | uint32(seg.Data[1])<<8 | uint32(seg.Data[2])<<16 | uint32(seg.Data[3])<<24
	d, err := isa.Decode(word)
	require.NoError(t, err)
	assert.Equal(t, "SLL", d.Op.Mnemonic)
	assert.Equal(t, uint32(0), d.RegA)
	assert.Equal(t, uint32(0), d.RegB)
	assert.Equal(t, uint32(0), d.Rd)
}

func TestLoadStoreFieldMapping(t *testing.T) {
	// LW $t0, 4($sp): destination ($t0) is the plain operand -> RegA;
	// base ($sp) is inside the parens -> RegB.
	img := assembleOK(t, "LW $t0, 4($sp)\n")
	seg := img.Segment("code")
	word := uint32(seg.Data[0]) | uint32(seg.Data[1])<<8 | uint32(seg.Data[2])<<16 | uint32(seg.Data[3])<<24
	d, err := isa.Decode(word)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), d.RegA)  // $t0 = r8
	assert.Equal(t, uint32(29), d.RegB) // $sp = r29
	assert.Equal(t, uint32(4), d.Imm16)
}

func TestSegmentDirectiveSwitchesCursor(t *testing.T) {
	img := assembleOK(t, ".segment data\n.word 1,2,3\n.segment code\nHALT\n")
	data := img.Segment("data")
	assert.Equal(t, uint32(12), data.Len())
	code := img.Segment("code")
	assert.Equal(t, uint32(4), code.Len())
}

func TestWordWithSymbolEmitsWord32Relocation(t *testing.T) {
	img := assembleOK(t, ".segment data\ntarget:\n.word target\n")
	require.Len(t, img.Relocations, 1)
	assert.Equal(t, object.FieldWord32, img.Relocations[0].Shape)
	assert.Equal(t, "target", img.Relocations[0].Symbol)
}
