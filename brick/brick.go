package brick

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/katalvlaran/voxbrick/catalog"
)

// Sentinel errors for placement construction and decoding.
var (
	// ErrFormat indicates a malformed TXT line, record or LDraw line.
	ErrFormat = errors.New("brick: malformed input")

	// ErrOrientation indicates an orientation outside {0, 1}.
	ErrOrientation = errors.New("brick: orientation must be 0 or 1")
)

// Brick is one placed brick. Construct with New, FromDims, FromRecord or
// ParseTxt; the zero value is not a valid placement.
type Brick struct {
	// ID is the catalog brick id.
	ID int
	// L, W, H are the catalog canonical dimensions (L <= W).
	L, W, H int
	// X, Y, Z is the minimum corner.
	X, Y, Z int
	// Ori is 1 when the footprint is rotated a quarter turn (L and W swapped).
	Ori int
}

// Record is the structured-record form of a placement.
type Record struct {
	BrickID int `json:"brick_id" cbor:"brick_id"`
	X       int `json:"x" cbor:"x"`
	Y       int `json:"y" cbor:"y"`
	Z       int `json:"z" cbor:"z"`
	Ori     int `json:"ori" cbor:"ori"`
}

// New places catalog brick id at (x, y, z) with orientation ori.
// Square footprints are normalized to ori 0.
//
// Errors: catalog.ErrLookup for an unknown id, ErrOrientation for ori ∉ {0,1}.
func New(cat *catalog.Catalog, id, x, y, z, ori int) (Brick, error) {
	if ori != 0 && ori != 1 {
		return Brick{}, fmt.Errorf("%w: got %d", ErrOrientation, ori)
	}
	l, w, h, err := cat.BrickIDToDimensions(id)
	if err != nil {
		return Brick{}, err
	}
	if l == w {
		ori = 0
	}
	return Brick{ID: id, L: l, W: w, H: h, X: x, Y: y, Z: z, Ori: ori}, nil
}

// FromDims places the brick whose drawn footprint is fx×fy (in X and Y) and
// whose height is h. The orientation is re-derived by comparing (fx, fy) with
// the catalog's canonical (l, w): same order is 0, swapped is 1.
func FromDims(cat *catalog.Catalog, fx, fy, h, x, y, z int) (Brick, error) {
	id, err := cat.DimensionsToBrickID(fx, fy, h)
	if err != nil {
		return Brick{}, err
	}
	ori := 0
	if fx > fy {
		ori = 1
	}
	return New(cat, id, x, y, z, ori)
}

// FromRecord is the inverse of Brick.Record.
func FromRecord(cat *catalog.Catalog, r Record) (Brick, error) {
	return New(cat, r.BrickID, r.X, r.Y, r.Z, r.Ori)
}

var txtLine = regexp.MustCompile(`^(\d+)x(\d+)x(\d+) \((-?\d+),(-?\d+),(-?\d+)\)$`)

// ParseTxt decodes one "<fx>x<fy>x<h> (<x>,<y>,<z>)" line; a trailing newline
// and surrounding blanks are ignored.
//
// Errors: ErrFormat (wrapped) when the line does not match, catalog.ErrLookup
// when the dimensions are not in the catalog.
func ParseTxt(cat *catalog.Catalog, line string) (Brick, error) {
	m := txtLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Brick{}, fmt.Errorf("%w: %q is not <L>x<W>x<H> (<X>,<Y>,<Z>)", ErrFormat, line)
	}
	var v [6]int
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Brick{}, fmt.Errorf("%w: %q: %v", ErrFormat, line, err)
		}
		v[i] = n
	}
	return FromDims(cat, v[0], v[1], v[2], v[3], v[4], v[5])
}

// Footprint returns the extent in X and Y after applying the orientation.
func (b Brick) Footprint() (fx, fy int) {
	if b.Ori == 1 {
		return b.W, b.L
	}
	return b.L, b.W
}

// Area returns fx·fy.
func (b Brick) Area() int { return b.L * b.W }

// Volume returns fx·fy·H.
func (b Brick) Volume() int { return b.L * b.W * b.H }

// Top returns the z-plane of the brick's top face.
func (b Brick) Top() int { return b.Z + b.H }

// Box returns the half-open 3D extent.
func (b Brick) Box() Box {
	fx, fy := b.Footprint()
	return Box{
		Min: [3]int{b.X, b.Y, b.Z},
		Max: [3]int{b.X + fx, b.Y + fy, b.Z + b.H},
	}
}

// Record returns the structured-record form.
func (b Brick) Record() Record {
	return Record{BrickID: b.ID, X: b.X, Y: b.Y, Z: b.Z, Ori: b.Ori}
}

// Txt returns the TXT line including its trailing newline.
func (b Brick) Txt() string {
	fx, fy := b.Footprint()
	return fmt.Sprintf("%dx%dx%d (%d,%d,%d)\n", fx, fy, b.H, b.X, b.Y, b.Z)
}

// Less orders bricks by position, then id and orientation. Used to compare
// structures as multisets.
func Less(a, b Brick) bool {
	switch {
	case a.Z != b.Z:
		return a.Z < b.Z
	case a.Y != b.Y:
		return a.Y < b.Y
	case a.X != b.X:
		return a.X < b.X
	case a.ID != b.ID:
		return a.ID < b.ID
	default:
		return a.Ori < b.Ori
	}
}

func (b Brick) String() string {
	return strings.TrimSuffix(b.Txt(), "\n")
}
