package vm

import (
	"fmt"

	"github.com/lookbusy1344/luz/peripheral"
)

// Memory is the Luz flat byte-addressable address space (spec.md §4.5):
// a sparse little-endian byte array where any address is writable and
// an address nothing has ever written reads as 0. Multi-byte accesses
// assert natural alignment; a misaligned access is reported as an
// AlignmentError for the CPU core to turn into an exception.
type Memory struct {
	bytes map[uint32]byte
	hook  peripheral.Hook

	AccessCount uint64
	ReadCount   uint64
	WriteCount  uint64
}

// NewMemory creates an empty address space. hook may be nil, in which
// case stores to every address behave as ordinary memory writes.
func NewMemory(hook peripheral.Hook) *Memory {
	return &Memory{bytes: make(map[uint32]byte), hook: hook}
}

// AlignmentError reports a misaligned multi-byte access (§4.6's
// "misaligned fetch or load/store" exception cause).
type AlignmentError struct {
	Address uint32
	Width   int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("misaligned %d-byte access at 0x%08X", e.Width, e.Address)
}

func checkAlign(address uint32, width int) error {
	mask := uint32(width - 1)
	if address&mask != 0 {
		return &AlignmentError{Address: address, Width: width}
	}
	return nil
}

// Load8 reads a single byte. Unwritten addresses read as 0.
func (m *Memory) Load8(address uint32) byte {
	m.AccessCount++
	m.ReadCount++
	return m.bytes[address]
}

// Store8 writes a single byte.
func (m *Memory) Store8(address uint32, value byte) {
	m.AccessCount++
	m.WriteCount++
	m.bytes[address] = value
}

// Load16 reads a little-endian halfword. address must be 2-byte
// aligned.
func (m *Memory) Load16(address uint32) (uint16, error) {
	if err := checkAlign(address, 2); err != nil {
		return 0, err
	}
	lo := m.Load8(address)
	hi := m.Load8(address + 1)
	return uint16(lo) | uint16(hi)<<8, nil
}

// Store16 writes a little-endian halfword. address must be 2-byte
// aligned.
func (m *Memory) Store16(address uint32, value uint16) error {
	if err := checkAlign(address, 2); err != nil {
		return err
	}
	m.Store8(address, byte(value))
	m.Store8(address+1, byte(value>>8))
	return nil
}

// Load32 reads a little-endian word. address must be 4-byte aligned.
func (m *Memory) Load32(address uint32) (uint32, error) {
	if err := checkAlign(address, 4); err != nil {
		return 0, err
	}
	b0 := m.Load8(address)
	b1 := m.Load8(address + 1)
	b2 := m.Load8(address + 2)
	b3 := m.Load8(address + 3)
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24, nil
}

// Store32 writes a little-endian word. address must be 4-byte aligned.
// If a peripheral hook is installed and watching address, the word is
// diverted to it in addition to being written as ordinary memory.
func (m *Memory) Store32(address uint32, value uint32) error {
	if err := checkAlign(address, 4); err != nil {
		return err
	}
	m.Store8(address, byte(value))
	m.Store8(address+1, byte(value>>8))
	m.Store8(address+2, byte(value>>16))
	m.Store8(address+3, byte(value>>24))
	if m.hook != nil && m.hook.Address() == address {
		m.hook.Observe(value)
	}
	return nil
}

// LoadBytes loads a byte slice into memory starting at address — used
// by the loader to place a linked executable's segments.
func (m *Memory) LoadBytes(address uint32, data []byte) {
	for i, b := range data {
		m.Store8(address+uint32(i), b)
	}
}

// Bytes returns length bytes read from address, for the debug surface's
// memory-dump view.
func (m *Memory) Bytes(address, length uint32) []byte {
	out := make([]byte, length)
	for i := uint32(0); i < length; i++ {
		out[i] = m.Load8(address + i)
	}
	return out
}

// Reset empties the address space.
func (m *Memory) Reset() {
	m.bytes = make(map[uint32]byte)
	m.AccessCount, m.ReadCount, m.WriteCount = 0, 0, 0
}
