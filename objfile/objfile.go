// Package objfile serializes object and executable images to a plain,
// human-diffable YAML record stream (spec.md §6): a header followed by
// one record per segment with its name, base address, and base64 bytes.
// Keeping the format readable (rather than a packed binary) is grounded
// in the object image being, per spec.md §5, the pure output of a pure
// function — worth diffing across assembler runs.
package objfile

import (
	"encoding/base64"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lookbusy1344/luz/linker"
	"github.com/lookbusy1344/luz/object"
)

// segmentRecord is one segment's on-disk shape: bytes are base64 so the
// YAML document stays plain text regardless of segment contents.
type segmentRecord struct {
	Name string `yaml:"name"`
	Base uint32 `yaml:"base,omitempty"`
	Data string `yaml:"data"`
}

type symbolRecord struct {
	Name    string `yaml:"name"`
	Segment string `yaml:"segment"`
	Offset  uint32 `yaml:"offset"`
	Global  bool   `yaml:"global"`
}

type relocationRecord struct {
	Segment string `yaml:"segment"`
	Offset  uint32 `yaml:"offset"`
	Shape   int    `yaml:"shape"`
	Symbol  string `yaml:"symbol,omitempty"`
}

// objectDoc is the on-disk shape of a .lzo object file.
type objectDoc struct {
	Name        string             `yaml:"name"`
	Segments    []segmentRecord    `yaml:"segments"`
	Symbols     []symbolRecord     `yaml:"symbols"`
	Relocations []relocationRecord `yaml:"relocations,omitempty"`
}

// executableDoc is the on-disk shape of a .lze executable image.
type executableDoc struct {
	Entry    uint32          `yaml:"entry"`
	Segments []segmentRecord `yaml:"segments"`
}

// WriteObject serializes an assembled image to path as YAML.
func WriteObject(path string, img *object.Image) error {
	doc := objectDoc{Name: img.Name}
	for _, seg := range img.Segments {
		doc.Segments = append(doc.Segments, segmentRecord{
			Name: seg.Name, Base: seg.Base, Data: base64.StdEncoding.EncodeToString(seg.Data),
		})
	}
	names := make([]string, 0, len(img.Symbols))
	for name := range img.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sym := img.Symbols[name]
		doc.Symbols = append(doc.Symbols, symbolRecord{
			Name: sym.Name, Segment: sym.Segment, Offset: sym.Offset, Global: sym.Global,
		})
	}
	for _, r := range img.Relocations {
		doc.Relocations = append(doc.Relocations, relocationRecord{
			Segment: r.Segment, Offset: r.Offset, Shape: int(r.Shape), Symbol: r.Symbol,
		})
	}
	return writeYAML(path, doc)
}

// ReadObject deserializes a .lzo file produced by WriteObject.
func ReadObject(path string) (*object.Image, error) {
	var doc objectDoc
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}
	img := object.NewImage(doc.Name)
	for _, sr := range doc.Segments {
		data, err := base64.StdEncoding.DecodeString(sr.Data)
		if err != nil {
			return nil, err
		}
		seg := img.Segment(sr.Name)
		seg.Data = data
		seg.Base = sr.Base
	}
	for _, sr := range doc.Symbols {
		img.Symbols[sr.Name] = &object.Symbol{Name: sr.Name, Segment: sr.Segment, Offset: sr.Offset, Global: sr.Global}
	}
	for _, rr := range doc.Relocations {
		img.Relocations = append(img.Relocations, &object.Relocation{
			Segment: rr.Segment, Offset: rr.Offset, Shape: object.FieldShape(rr.Shape), Symbol: rr.Symbol,
		})
	}
	return img, nil
}

// WriteExecutable serializes a linked executable to path as YAML.
func WriteExecutable(path string, exe *linker.Executable) error {
	doc := executableDoc{Entry: exe.Entry}
	for _, seg := range exe.Segments {
		doc.Segments = append(doc.Segments, segmentRecord{
			Name: seg.Name, Base: seg.Base, Data: base64.StdEncoding.EncodeToString(seg.Data),
		})
	}
	return writeYAML(path, doc)
}

// ReadExecutable deserializes a .lze file produced by WriteExecutable.
func ReadExecutable(path string) (*linker.Executable, error) {
	var doc executableDoc
	if err := readYAML(path, &doc); err != nil {
		return nil, err
	}
	exe := &linker.Executable{Entry: doc.Entry}
	for _, sr := range doc.Segments {
		data, err := base64.StdEncoding.DecodeString(sr.Data)
		if err != nil {
			return nil, err
		}
		exe.Segments = append(exe.Segments, &object.Segment{Name: sr.Name, Base: sr.Base, Data: data})
	}
	return exe, nil
}

func writeYAML(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, v)
}
