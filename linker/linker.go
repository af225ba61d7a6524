// Package linker merges the object images an assembler run produces
// into one executable image: it concatenates same-named segments in
// input order, assigns each segment an absolute base address, resolves
// every symbol reference, and patches relocations in place (spec.md
// §4.4).
package linker

import (
	"fmt"

	"github.com/lookbusy1344/luz/object"
)

// codeBase is the fixed load address of the first (code) segment.
// Every other segment is placed immediately after the previous one,
// 4-byte aligned, in the order segments first appear across the inputs.
const codeBase = 0x00100000

// entrySymbol is the global symbol the linker treats as the program's
// first instruction.
const entrySymbol = "asm_main"

// Executable is a fully linked, relocated Luz program: a flat set of
// segments at their final absolute addresses plus the address execution
// should start at.
type Executable struct {
	Segments []*object.Segment
	Entry    uint32
}

// LinkError reports a link-time failure (§7's "Link-time" category:
// unresolved external, duplicate global, overlapping segment
// placement).
type LinkError struct {
	Message string
}

func (e *LinkError) Error() string { return e.Message }

// Link merges imgs (in the order given — this is the "input order" the
// spec's segment-concatenation rule refers to) into a single
// Executable.
func Link(imgs []*object.Image) (*Executable, error) {
	merged, segOrder := mergeSegments(imgs)
	assignBases(merged, segOrder)

	globals, err := collectGlobals(imgs)
	if err != nil {
		return nil, err
	}

	for _, img := range imgs {
		if err := applyRelocations(img, merged, globals); err != nil {
			return nil, err
		}
	}

	entry, ok := globals[entrySymbol]
	if !ok {
		return nil, &LinkError{Message: "undefined entry point: no global symbol " + entrySymbol}
	}
	entrySeg, ok := merged[entry.Segment]
	if !ok {
		return nil, &LinkError{Message: "entry point " + entrySymbol + " is in an unknown segment"}
	}

	out := make([]*object.Segment, 0, len(segOrder))
	for _, name := range segOrder {
		out = append(out, merged[name])
	}
	return &Executable{Segments: out, Entry: entrySeg.Base + entry.Offset}, nil
}

// mergeSegments concatenates same-named segments across imgs in input
// order, and records where each image's contribution to each segment
// landed so local symbol offsets can be translated into the merged
// segment's coordinate space.
func mergeSegments(imgs []*object.Image) (map[string]*object.Segment, []string) {
	merged := make(map[string]*object.Segment)
	var order []string
	contribStart := make(map[*object.Image]map[string]uint32)

	for _, img := range imgs {
		contribStart[img] = make(map[string]uint32)
		for _, name := range img.SegmentOrder {
			seg := img.Segment(name)
			m, ok := merged[name]
			if !ok {
				m = &object.Segment{Name: name}
				merged[name] = m
				order = append(order, name)
			}
			contribStart[img][name] = m.Len()
			m.Data = append(m.Data, seg.Data...)
		}
	}

	for _, img := range imgs {
		for name, sym := range img.Symbols {
			start := contribStart[img][sym.Segment]
			img.Symbols[name] = &object.Symbol{
				Name: sym.Name, Segment: sym.Segment, Offset: start + sym.Offset, Global: sym.Global,
			}
		}
	}

	return merged, order
}

// assignBases assigns absolute base addresses: the segment named "code"
// (if present) lands at codeBase; every other segment follows
// immediately, 4-byte aligned, in first-appearance order.
func assignBases(segs map[string]*object.Segment, order []string) {
	addr := uint32(codeBase)
	if seg, ok := segs["code"]; ok {
		seg.Base = addr
		addr += align4(seg.Len())
	}
	for _, name := range order {
		if name == "code" {
			continue
		}
		seg := segs[name]
		seg.Base = addr
		addr += align4(seg.Len())
	}
}

func align4(n uint32) uint32 {
	return (n + 3) &^ 3
}

// collectGlobals builds the union of every image's exported (global)
// symbols, erroring on a name exported by more than one image.
func collectGlobals(imgs []*object.Image) (map[string]*object.Symbol, error) {
	globals := make(map[string]*object.Symbol)
	for _, img := range imgs {
		for name, sym := range img.Symbols {
			if !sym.Global {
				continue
			}
			if _, dup := globals[name]; dup {
				return nil, &LinkError{Message: "duplicate global symbol " + name}
			}
			globals[name] = sym
		}
	}
	return globals, nil
}

// applyRelocations patches every relocation img recorded, resolving
// each symbol first against img's own symbol table (so an image's local
// labels never need to be exported) and falling back to the global
// union for external references.
func applyRelocations(img *object.Image, merged map[string]*object.Segment, globals map[string]*object.Symbol) error {
	for _, reloc := range img.Relocations {
		sym, ok := img.Symbols[reloc.Symbol]
		if !ok {
			sym, ok = globals[reloc.Symbol]
		}
		if !ok {
			return &LinkError{Message: fmt.Sprintf("unresolved external reference %q", reloc.Symbol)}
		}
		segBase := merged[sym.Segment].Base
		target := segBase + sym.Offset

		dest, ok := merged[reloc.Segment]
		if !ok {
			return &LinkError{Message: "relocation against unknown segment " + reloc.Segment}
		}
		patchAddr := dest.Base + reloc.Offset

		if err := patch(dest.Data, reloc.Offset, reloc.Shape, target, patchAddr); err != nil {
			return err
		}
	}
	return nil
}

// patch overwrites the little-endian word at data[offset:offset+4]
// according to shape, given the relocation's resolved absolute target
// address and the absolute address of the instruction/data word being
// patched (needed for PC-relative shapes).
func patch(data []byte, offset uint32, shape object.FieldShape, target, selfAddr uint32) error {
	word := readWord(data, offset)

	switch shape {
	case object.FieldImm16:
		v := int64(int32(target))
		if v < -32768 || v > 65535 {
			return &LinkError{Message: fmt.Sprintf("relocated value 0x%X does not fit in 16 bits", target)}
		}
		word = (word &^ 0xFFFF) | (target & 0xFFFF)

	case object.FieldHi16:
		word = (word &^ 0xFFFF) | ((target >> 16) & 0xFFFF)

	case object.FieldLo16:
		word = (word &^ 0xFFFF) | (target & 0xFFFF)

	case object.FieldBranch16:
		offsetWords := (int64(target) - int64(selfAddr)) / 4
		if offsetWords < -32768 || offsetWords > 32767 {
			return &LinkError{Message: "relocated branch offset out of 16-bit range"}
		}
		word = (word &^ 0xFFFF) | (uint32(offsetWords) & 0xFFFF)

	case object.FieldBranch26:
		offsetWords := (int64(target) - int64(selfAddr)) / 4
		if offsetWords < -(1<<25) || offsetWords > (1<<25)-1 {
			return &LinkError{Message: "relocated B offset out of 26-bit range"}
		}
		word = (word &^ 0x3FFFFFF) | (uint32(offsetWords) & 0x3FFFFFF)

	case object.FieldCall26:
		if target%4 != 0 {
			return &LinkError{Message: fmt.Sprintf("CALL target 0x%08X is not word-aligned", target)}
		}
		index := target / 4
		if index > 0x3FFFFFF {
			return &LinkError{Message: "relocated CALL target does not fit in 26 bits"}
		}
		word = (word &^ 0x3FFFFFF) | index

	case object.FieldWord32:
		word = target
	}

	writeWord(data, offset, word)
	return nil
}

func readWord(data []byte, offset uint32) uint32 {
	return uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
}

func writeWord(data []byte, offset uint32, word uint32) {
	data[offset] = byte(word)
	data[offset+1] = byte(word >> 8)
	data[offset+2] = byte(word >> 16)
	data[offset+3] = byte(word >> 24)
}
