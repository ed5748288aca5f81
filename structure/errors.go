package structure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/katalvlaran/voxbrick/brick"
)

var (
	// ErrFormat is brick.ErrFormat: malformed TXT, record or LDraw input.
	ErrFormat = brick.ErrFormat

	// ErrGeometry indicates out-of-bounds or colliding placements.
	ErrGeometry = errors.New("structure: invalid geometry")

	// ErrOptionViolation indicates an invalid constructor option.
	ErrOptionViolation = errors.New("structure: option violation")
)

// Format names used in FormatError.
const (
	FormatTxt    = "txt"
	FormatRecord = "record"
	FormatLDraw  = "ldraw"
)

// FormatError locates a decoding failure. Line is 1-based (for records it is
// the record key); Field names the offending field when known.
type FormatError struct {
	Format string
	Line   int
	Field  string
	Text   string
	Err    error
}

func (e *FormatError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "structure: %s line %d", e.Format, e.Line)
	if e.Field != "" {
		fmt.Fprintf(&sb, " field %s", e.Field)
	}
	if e.Text != "" {
		fmt.Fprintf(&sb, " %q", e.Text)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap exposes both ErrFormat and the underlying cause, so a failed
// catalog lookup during decoding matches ErrFormat and catalog.ErrLookup.
func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}

// GeometryError lists every out-of-bounds brick index and colliding pair.
type GeometryError struct {
	OutOfBounds []int
	Collisions  [][2]int
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("structure: invalid geometry: %d out of bounds %v, %d collisions %v",
		len(e.OutOfBounds), e.OutOfBounds, len(e.Collisions), e.Collisions)
}

func (e *GeometryError) Unwrap() error { return ErrGeometry }
