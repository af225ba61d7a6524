// Package object defines the in-memory representation the assembler
// emits and the linker consumes: segments, symbols and relocations
// (spec.md §3).
package object

// Segment is a named linear region of an object or executable image.
type Segment struct {
	Name string
	Data []byte
	// Base is the absolute address the linker assigns this segment.
	// Zero (and meaningless) in a freshly assembled object image.
	Base uint32
}

// Symbol is a named address: a segment plus an offset within it, with a
// scope (local or exported).
type Symbol struct {
	Name    string
	Segment string
	Offset  uint32
	Global  bool
}

// FieldShape identifies which bits of an instruction word a Relocation
// patches, and how the resolved address is scaled before being written,
// per spec.md §3's three immediate kinds.
type FieldShape int

const (
	// FieldImm16 patches the low 16 bits verbatim (ADDI/SUBI/ANDI and
	// loads/stores whose address is computed from a symbol; ORI uses
	// FieldLo16).
	FieldImm16 FieldShape = iota
	// FieldBranch16 patches the low 16 bits with a signed word offset
	// relative to the relocation's own instruction address, divided by 4.
	FieldBranch16
	// FieldBranch26 patches the low 26 bits with a signed word offset
	// relative to the relocation's own instruction address, divided by 4
	// (B).
	FieldBranch26
	// FieldCall26 patches the low 26 bits with an absolute word index
	// (CALL).
	FieldCall26
	// FieldWord32 patches a whole 32-bit data word with an absolute
	// address (.word NAME).
	FieldWord32
	// FieldHi16 patches the low 16 bits of a LUI with bits 31:16 of a
	// resolved address (the upper half of an LI rd, LABEL pair).
	FieldHi16
	// FieldLo16 patches the low 16 bits of an ORI with bits 15:0 of a
	// resolved address (the lower half of an LI rd, LABEL pair).
	FieldLo16
)

// Relocation is a deferred patch: a field in an already-emitted
// instruction word that must be filled in once a symbol's final address
// is known.
type Relocation struct {
	Segment string // segment containing the target word
	Offset  uint32 // byte offset of the target word within Segment
	Shape   FieldShape
	Symbol  string // name to resolve
}

// Image is a single assembler translation unit's output: its segments,
// its symbol table (local and exported), and the relocations still
// outstanding against it.
type Image struct {
	Name        string // source filename, for diagnostics
	Segments    []*Segment
	SegmentOrder []string
	Symbols     map[string]*Symbol
	Relocations []*Relocation
}

// NewImage creates an empty object image.
func NewImage(name string) *Image {
	return &Image{
		Name:    name,
		Symbols: make(map[string]*Symbol),
	}
}

// Segment returns the named segment, creating it (in declaration order)
// if it does not yet exist.
func (img *Image) Segment(name string) *Segment {
	for _, s := range img.Segments {
		if s.Name == name {
			return s
		}
	}
	s := &Segment{Name: name}
	img.Segments = append(img.Segments, s)
	img.SegmentOrder = append(img.SegmentOrder, name)
	return s
}

// Len returns the current write-cursor (end-of-data offset) of a
// segment.
func (s *Segment) Len() uint32 {
	return uint32(len(s.Data))
}
