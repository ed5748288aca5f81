package structure

import (
	"context"
	"errors"
	"sort"

	"github.com/katalvlaran/voxbrick/brick"
	"github.com/katalvlaran/voxbrick/connectivity"
	"github.com/katalvlaran/voxbrick/spatial"
	"github.com/katalvlaran/voxbrick/stability"
)

// BrickInBounds reports whether b lies within [0, dims) on every axis.
func (s *Structure) BrickInBounds(b brick.Brick) bool {
	return b.Box().Within(s.cfg.dims)
}

// Collisions lists every pair (i, j), i < j, of overlapping bricks, ordered
// by j then i. The R-tree limits exact tests to nearby bricks.
// Complexity: O(N log N) expected plus the number of candidates.
func (s *Structure) Collisions() [][2]int {
	var out [][2]int
	ix := spatial.NewIndex()
	for j, b := range s.bricks {
		box := b.Box()
		for _, i := range ix.Candidates(box) {
			if s.bricks[i].Box().Overlaps(box) {
				out = append(out, [2]int{i, j})
			}
		}
		if err := ix.Insert(j, box); err != nil {
			continue
		}
	}
	return out
}

// HasCollisions reports whether any two bricks overlap.
func (s *Structure) HasCollisions() bool { return len(s.Collisions()) > 0 }

// BrickFloats reports whether b has no support: it is not on z = 0, no
// brick's top plane meets its bottom with footprint overlap, and it does
// not hang from a brick whose bottom plane meets its top.
func (s *Structure) BrickFloats(b brick.Brick) bool {
	if b.Z == 0 {
		return false
	}
	box := b.Box()
	for _, i := range s.spatialIndex().Candidates(box) {
		o := s.bricks[i]
		if (o.Top() == b.Z || o.Z == b.Top()) && o.Box().FootprintOverlap(box) > 0 {
			return false
		}
	}
	return true
}

// FloatingBricks lists the indices of floating bricks, ascending.
func (s *Structure) FloatingBricks() []int {
	var out []int
	for i, b := range s.bricks {
		if s.BrickFloats(b) {
			out = append(out, i)
		}
	}
	return out
}

// HasFloatingBricks reports whether any brick floats.
func (s *Structure) HasFloatingBricks() bool {
	for _, b := range s.bricks {
		if s.BrickFloats(b) {
			return true
		}
	}
	return false
}

// Validate returns a *GeometryError listing out-of-bounds bricks and
// colliding pairs, or nil.
func (s *Structure) Validate() error {
	var ge GeometryError
	for i, b := range s.bricks {
		if !s.BrickInBounds(b) {
			ge.OutOfBounds = append(ge.OutOfBounds, i)
		}
	}
	ge.Collisions = s.Collisions()
	sort.Slice(ge.Collisions, func(a, b int) bool {
		if ge.Collisions[a][0] != ge.Collisions[b][0] {
			return ge.Collisions[a][0] < ge.Collisions[b][0]
		}
		return ge.Collisions[a][1] < ge.Collisions[b][1]
	})
	if len(ge.OutOfBounds) == 0 && len(ge.Collisions) == 0 {
		return nil
	}
	return &ge
}

// Connectivity builds the neighbor and connection graphs of the structure.
func (s *Structure) Connectivity() (*connectivity.Structure, error) {
	cs := connectivity.New(s.cfg.dims,
		connectivity.WithSolver(s.cfg.solver),
		connectivity.WithThreshold(s.cfg.threshold))
	if _, err := cs.AddBricks(s.bricks); err != nil {
		return nil, err
	}
	return cs, nil
}

// StabilityScore runs the configured solver over the connection graph.
func (s *Structure) StabilityScore(ctx context.Context) (float64, error) {
	cs, err := s.Connectivity()
	if err != nil {
		return 1, err
	}
	return cs.StabilityScore(ctx)
}

// IsStable reports whether no brick floats and the stability score is
// below the threshold. When the solver is unavailable the floating-bricks
// result is returned together with the error.
func (s *Structure) IsStable(ctx context.Context) (bool, error) {
	if s.HasFloatingBricks() {
		return false, nil
	}
	score, err := s.StabilityScore(ctx)
	if errors.Is(err, stability.ErrSolverUnavailable) {
		return true, err
	}
	if err != nil {
		return false, err
	}
	return score < s.cfg.threshold, nil
}
