package object_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lookbusy1344/luz/object"
)

func TestSegmentCreatedOnFirstUse(t *testing.T) {
	img := object.NewImage("t.lasm")

	seg := img.Segment("code")
	assert.Equal(t, "code", seg.Name)
	assert.Equal(t, uint32(0), seg.Len())

	// Fetching the same name again returns the same segment, not a
	// second one.
	seg.Data = append(seg.Data, 1, 2, 3, 4)
	again := img.Segment("code")
	assert.Equal(t, uint32(4), again.Len())
	assert.Len(t, img.Segments, 1)
}

func TestSegmentOrderPreserved(t *testing.T) {
	img := object.NewImage("t.lasm")
	img.Segment("code")
	img.Segment("data")
	img.Segment("bss")

	assert.Equal(t, []string{"code", "data", "bss"}, img.SegmentOrder)
}
