package isa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/luz/isa"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		op   string
		a, b, rd, imm uint32
	}{
		{"ADD", "ADD", 3, 4, 5, 0},
		{"ADDI", "ADDI", 7, 9, 0, 0x1234},
		{"BEQ", "BEQ", 1, 2, 0, 0xFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := isa.Lookup(tt.op)
			require.True(t, ok)

			word := isa.Encode(op, tt.a, tt.b, tt.rd, tt.imm)
			d, err := isa.Decode(word)
			require.NoError(t, err)
			assert.Equal(t, op.Mnemonic, d.Op.Mnemonic)

			switch op.Format {
			case isa.FormatR:
				assert.Equal(t, tt.a, d.RegA)
				assert.Equal(t, tt.b, d.RegB)
				assert.Equal(t, tt.rd, d.Rd)
			case isa.FormatI, isa.FormatBranch:
				assert.Equal(t, tt.a, d.RegA)
				assert.Equal(t, tt.b, d.RegB)
				assert.Equal(t, tt.imm, d.Imm16)
			}
		})
	}
}

func TestDecodeUndefinedOpcode(t *testing.T) {
	// opcode value 0x3F is never assigned in Table.
	word := uint32(0x3F) << 26
	_, err := isa.Decode(word)
	require.Error(t, err)
}

func TestSignExtend16(t *testing.T) {
	assert.Equal(t, int32(-1), isa.SignExtend16(0xFFFF))
	assert.Equal(t, int32(1), isa.SignExtend16(0x0001))
	assert.Equal(t, int32(-32768), isa.SignExtend16(0x8000))
}

func TestSignExtend26(t *testing.T) {
	assert.Equal(t, int32(-1), isa.SignExtend26(0x3FFFFFF))
	assert.Equal(t, int32(1), isa.SignExtend26(1))
}

func TestRegisterAliasesResolveBothWays(t *testing.T) {
	for name, num := range isa.RegisterAliases {
		got, ok := isa.RegisterName(num)
		require.True(t, ok)
		assert.Equal(t, name, got)
	}
}

func TestPseudoSize(t *testing.T) {
	size, ok := isa.PseudoSize("LI")
	require.True(t, ok)
	assert.Equal(t, 8, size)

	size, ok = isa.PseudoSize("NOP")
	require.True(t, ok)
	assert.Equal(t, 4, size)

	_, ok = isa.PseudoSize("ADD")
	assert.False(t, ok)
}
