package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog operations.
var (
	// ErrLookup indicates that no catalog entry matches the requested key.
	ErrLookup = errors.New("catalog: no matching brick")

	// ErrInvalidTable indicates a malformed catalog source table.
	ErrInvalidTable = errors.New("catalog: invalid brick table")
)

// LookupError reports which key could not be resolved.
// It matches ErrLookup under errors.Is.
type LookupError struct {
	// Kind names the key space: "id", "part" or "dimensions".
	Kind string
	// Key is the formatted key that was looked up.
	Key string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("catalog: no brick for %s %s", e.Kind, e.Key)
}

// Unwrap exposes ErrLookup.
func (e *LookupError) Unwrap() error { return ErrLookup }

// BrickType is one catalog entry.
//
// Length and Width are the footprint in studs with Length <= Width;
// Height is measured in plate units.
type BrickType struct {
	ID     int
	Length int
	Width  int
	Height int
	PartID string
}

// IsPlate reports whether the entry is one plate tall.
func (t BrickType) IsPlate() bool { return t.Height == 1 }

// Area returns the footprint area in studs.
func (t BrickType) Area() int { return t.Length * t.Width }

// dimKey is the canonical lookup key (l <= w).
type dimKey struct {
	l, w, h int
}

func canonical(l, w, h int) dimKey {
	if l > w {
		l, w = w, l
	}
	return dimKey{l: l, w: w, h: h}
}

// tableEntry mirrors one row of bricks.yaml.
type tableEntry struct {
	Length int    `yaml:"length"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Part   string `yaml:"part"`
}
