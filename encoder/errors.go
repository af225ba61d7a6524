package encoder

import (
	"fmt"

	"github.com/lookbusy1344/luz/parser"
)

// EncodingError reports a range-check or alignment failure while
// emitting a single instruction, carrying its source position (§4.3,
// §7's "range overflow" kind).
type EncodingError struct {
	Pos     parser.Position
	Message string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: error: %s", e.Pos, e.Message)
}

// NewEncodingError creates an EncodingError at pos.
func NewEncodingError(pos parser.Position, format string, args ...interface{}) *EncodingError {
	return &EncodingError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
