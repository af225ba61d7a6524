package loader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/luz/linker"
	"github.com/lookbusy1344/luz/loader"
	"github.com/lookbusy1344/luz/object"
	"github.com/lookbusy1344/luz/peripheral"
)

func TestLoadPlacesSegmentsAndArmsEntry(t *testing.T) {
	exe := &linker.Executable{
		Entry: 0x00100004,
		Segments: []*object.Segment{
			{Name: "code", Base: 0x00100000, Data: []byte{0xAA, 0xBB, 0xCC, 0xDD}},
			{Name: "data", Base: 0x00100004, Data: []byte{0x01, 0x02}},
		},
	}

	machine := loader.Load(exe, nil)
	require.NotNil(t, machine)

	assert.Equal(t, uint32(0x00100004), machine.CPU.PC)
	assert.False(t, machine.CPU.Halt)

	word, err := machine.Memory.Load32(0x00100000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDDCCBBAA), word)

	assert.Equal(t, byte(0x01), machine.Memory.Load8(0x00100004))
	assert.Equal(t, byte(0x02), machine.Memory.Load8(0x00100005))
}

func TestLoadWiresPeripheralHook(t *testing.T) {
	exe := &linker.Executable{
		Entry:    0x00100000,
		Segments: []*object.Segment{{Name: "code", Base: 0x00100000, Data: make([]byte, 4)}},
	}
	q := peripheral.NewQueue(0xF0000)
	machine := loader.Load(exe, q)

	require.NoError(t, machine.Memory.Store32(0xF0000, 7))
	assert.Equal(t, []uint32{7}, q.Words())
}
