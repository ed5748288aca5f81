package brick

import "fmt"

// Axis indices into Box.Min / Box.Max.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Dims is a world bound: every placement must lie in [0,X)×[0,Y)×[0,Z).
type Dims struct {
	X, Y, Z int
}

// Cube returns Dims with all three sides equal to n.
func Cube(n int) Dims { return Dims{X: n, Y: n, Z: n} }

// Valid reports whether all three sides are positive.
func (d Dims) Valid() bool { return d.X > 0 && d.Y > 0 && d.Z > 0 }

// Volume returns X·Y·Z.
func (d Dims) Volume() int { return d.X * d.Y * d.Z }

func (d Dims) String() string { return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z) }

// Box is a half-open integer box [Min, Max) on each axis.
type Box struct {
	Min, Max [3]int
}

// Size returns the side length on axis a.
func (b Box) Size(a int) int { return b.Max[a] - b.Min[a] }

// Volume returns the number of unit cells inside b.
func (b Box) Volume() int { return b.Size(AxisX) * b.Size(AxisY) * b.Size(AxisZ) }

// overlap1 is the length of the intersection of [a0,a1) and [b0,b1), or 0.
func overlap1(a0, a1, b0, b1 int) int {
	lo, hi := max(a0, b0), min(a1, b1)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Overlaps reports whether b and o share at least one unit cell, i.e. their
// intersection is non-empty on all three axes.
// Complexity: O(1).
func (b Box) Overlaps(o Box) bool {
	for a := 0; a < 3; a++ {
		if overlap1(b.Min[a], b.Max[a], o.Min[a], o.Max[a]) == 0 {
			return false
		}
	}
	return true
}

// Touches reports face adjacency: on exactly one axis the boxes meet with zero
// gap (one's Max equals the other's Min) and on the other two axes their
// intervals overlap with positive length. Edge and corner contact do not count.
// Complexity: O(1).
func (b Box) Touches(o Box) bool {
	for a := 0; a < 3; a++ {
		if b.Max[a] != o.Min[a] && o.Max[a] != b.Min[a] {
			continue
		}
		u, v := (a+1)%3, (a+2)%3
		if overlap1(b.Min[u], b.Max[u], o.Min[u], o.Max[u]) > 0 &&
			overlap1(b.Min[v], b.Max[v], o.Min[v], o.Max[v]) > 0 {
			return true
		}
	}
	return false
}

// FootprintOverlap returns the XY intersection area of b and o.
func (b Box) FootprintOverlap(o Box) int {
	return overlap1(b.Min[AxisX], b.Max[AxisX], o.Min[AxisX], o.Max[AxisX]) *
		overlap1(b.Min[AxisY], b.Max[AxisY], o.Min[AxisY], o.Max[AxisY])
}

// Within reports whether b lies entirely inside [0, d) on all axes.
func (b Box) Within(d Dims) bool {
	lim := [3]int{d.X, d.Y, d.Z}
	for a := 0; a < 3; a++ {
		if b.Min[a] < 0 || b.Max[a] > lim[a] {
			return false
		}
	}
	return true
}

func (b Box) String() string {
	return fmt.Sprintf("[%d,%d)x[%d,%d)x[%d,%d)",
		b.Min[AxisX], b.Max[AxisX], b.Min[AxisY], b.Max[AxisY], b.Min[AxisZ], b.Max[AxisZ])
}
