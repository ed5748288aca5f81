package structure

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/katalvlaran/voxbrick/brick"
)

// LDraw units: one stud is 20 LDU horizontally, one plate 8 LDU vertically.
// LDraw's y axis points down.
const (
	ldrColor    = 115
	ldrStud     = 20
	ldrPlate    = 8
	ldrStepLine = "0 STEP"
	ldrFields   = 15
	ldrEpsilon  = 1e-6
)

// Rotation matrices, row-major. Orientation 0 is a quarter yaw so a brick's
// length runs along LDraw x; orientation 1 is the identity.
var (
	rotYaw      = [9]float64{0, 0, 1, 0, 1, 0, -1, 0, 0}
	rotYawInv   = [9]float64{0, 0, -1, 0, 1, 0, 1, 0, 0}
	rotIdentity = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
)

func formatRot(r [9]float64) string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}

// Ldr encodes one part line and one step line per brick, in insertion order.
//
// Errors: catalog.ErrLookup when a brick id has no part.
func (s *Structure) Ldr() (string, error) {
	var sb strings.Builder
	for i, b := range s.bricks {
		part, err := s.cfg.cat.BrickIDToPartID(b.ID)
		if err != nil {
			return "", fmt.Errorf("structure: brick %d: %w", i, err)
		}
		fx, fy := b.Footprint()
		x := float64(ldrStud*b.X) + float64(ldrStud*fx)/2
		z := float64(ldrStud*b.Y) + float64(ldrStud*fy)/2
		y := -ldrPlate * b.Z
		rot := rotYaw
		if b.Ori == 1 {
			rot = rotIdentity
		}
		fmt.Fprintf(&sb, "1 %d %.1f %d %.1f %s %s.DAT\n%s\n", ldrColor, x, y, z, formatRot(rot), part, ldrStepLine)
	}
	return sb.String(), nil
}

// FromLdr decodes Ldr output. Blank lines and meta lines (type 0) are
// skipped; any color is accepted. Positions must invert to integers.
func FromLdr(text string, opts ...Option) (*Structure, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	var bricks []brick.Brick
	for n, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == "0" {
			continue
		}
		b, ferr := parseLdrLine(cfg, fields)
		if ferr != nil {
			ferr.Line, ferr.Text = n+1, line
			return nil, ferr
		}
		bricks = append(bricks, b)
	}
	return &Structure{cfg: cfg, bricks: bricks}, nil
}

func parseLdrLine(cfg config, fields []string) (brick.Brick, *FormatError) {
	bad := func(field string, err error) (brick.Brick, *FormatError) {
		return brick.Brick{}, &FormatError{Format: FormatLDraw, Field: field, Err: err}
	}
	if fields[0] != "1" {
		return bad("type", fmt.Errorf("line type %s is not a part", fields[0]))
	}
	if len(fields) != ldrFields {
		return bad("", fmt.Errorf("%d fields, want %d", len(fields), ldrFields))
	}
	if _, err := strconv.Atoi(fields[1]); err != nil {
		return bad("color", err)
	}
	var nums [12]float64
	for i := range nums {
		v, err := strconv.ParseFloat(fields[2+i], 64)
		if err != nil {
			return bad(ldrFieldName(i), err)
		}
		nums[i] = v
	}

	file := fields[14]
	if !strings.EqualFold(file[max(len(file)-4, 0):], ".dat") {
		return bad("part", fmt.Errorf("part file %q lacks .DAT", file))
	}
	id, err := cfg.cat.PartIDToBrickID(file[:len(file)-4])
	if err != nil {
		return bad("part", err)
	}

	var rot [9]float64
	copy(rot[:], nums[3:])
	var ori int
	switch {
	case sameRot(rot, rotYaw), sameRot(rot, rotYawInv):
		ori = 0
	case sameRot(rot, rotIdentity):
		ori = 1
	default:
		return bad("rotation", fmt.Errorf("unsupported rotation %v", rot))
	}

	b, err := brick.New(cfg.cat, id, 0, 0, 0, ori)
	if err != nil {
		return bad("part", err)
	}
	fx, fy := b.Footprint()
	var ok bool
	if b.X, ok = integral((nums[0] - float64(ldrStud*fx)/2) / ldrStud); !ok {
		return bad("x", fmt.Errorf("%g is not on the stud grid", nums[0]))
	}
	if b.Z, ok = integral(-nums[1] / ldrPlate); !ok {
		return bad("y", fmt.Errorf("%g is not on the plate grid", nums[1]))
	}
	if b.Y, ok = integral((nums[2] - float64(ldrStud*fy)/2) / ldrStud); !ok {
		return bad("z", fmt.Errorf("%g is not on the stud grid", nums[2]))
	}
	return b, nil
}

func ldrFieldName(i int) string {
	switch i {
	case 0:
		return "x"
	case 1:
		return "y"
	case 2:
		return "z"
	}
	return fmt.Sprintf("rotation[%d]", i-3)
}

func sameRot(a, b [9]float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > ldrEpsilon {
			return false
		}
	}
	return true
}

func integral(v float64) (int, bool) {
	r := math.Round(v)
	if math.Abs(v-r) > ldrEpsilon {
		return 0, false
	}
	return int(r), true
}
