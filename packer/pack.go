package packer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/katalvlaran/voxbrick/brick"
	"github.com/katalvlaran/voxbrick/structure"
	"github.com/katalvlaran/voxbrick/voxel"
)

// Cell ownership markers.
const (
	unassigned = -1
	gap        = -2
)

// shape is one placeable footprint-and-height, as drawn in X and Y.
type shape struct {
	fx, fy, h int
}

func (s shape) area() int   { return s.fx * s.fy }
func (s shape) volume() int { return s.fx * s.fy * s.h }

// candidate is a shape evaluated at one start cell.
type candidate struct {
	shape
	// merges counts distinct components among the bricks directly below.
	merges int
	// seams counts the candidate's far faces (+X, +Y) that line up with a
	// joint between two bricks of the course below.
	seams int
	// support counts distinct bricks directly below.
	support int
}

type packer struct {
	opts   Options
	grid   *voxel.Grid
	dims   brick.Dims
	maxDim int
	owner  []int
	parent []int // union-find over brick indices, joined along connections
	shapes []shape
	bricks []brick.Brick
	gaps   [][3]int
}

// Pack decomposes grid into catalog bricks. The result is a pure function
// of grid and opts.
//
// Steps:
//  1. Validate and normalize options.
//  2. Pack Z layers bottom-up, checking ctx before each layer.
//  3. Apply the gap policy.
//  4. Merge vertical runs (optional) and build the Structure.
//  5. Verify bounds, collisions and coverage (optional).
//  6. Collect stats, including the stability score.
//  7. Drop the result if the deadline passed while the solver ran.
func Pack(ctx context.Context, grid *voxel.Grid, opts Options) (*Result, error) {
	start := time.Now()

	// 1) Options
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrOptionViolation)
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	log := opts.Logger.With(zap.Stringer("strategy", opts.Strategy), zap.Stringer("dims", grid.Dims()))

	// 2) Layers, bottom-up
	p := newPacker(grid, opts)
	for z := 0; z < p.dims.Z; z++ {
		// 2a) Cancellation check per layer
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// 2b) Greedy placement within the layer
		placed := p.layer(z)
		log.Debug("layer packed", zap.Int("z", z), zap.Int("placed", placed), zap.Int("total", len(p.bricks)))
	}

	// 3) Gap policy
	if len(p.gaps) > 0 {
		if opts.Gaps == GapFail {
			return nil, &UncoverableRegionError{Cells: p.gaps}
		}
		log.Warn("cells left uncovered", zap.Int("gaps", len(p.gaps)))
	}

	// 4) Vertical merge and structure
	bricks := p.bricks
	if opts.VerticalMerge {
		bricks = mergeVertical(opts, bricks)
	}
	s, err := structure.New(bricks,
		structure.WithWorldDim(p.dims),
		structure.WithCatalog(opts.Catalog),
		structure.WithSolver(opts.Solver))
	if err != nil {
		return nil, err
	}

	// 5) Self-check
	if opts.Verify {
		if err := verify(grid, s, p.gaps); err != nil {
			return nil, err
		}
	}

	// 6) Stats
	stats, err := collectStats(ctx, grid, s)
	if err != nil {
		return nil, err
	}

	// 7) A solver that ignores ctx may return after the deadline; the
	//    caller has already given up on this structure.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stats.Elapsed = time.Since(start)
	log.Info("pack finished",
		zap.Int("bricks", stats.Bricks),
		zap.Int("components", stats.Components),
		zap.Int("min_components", stats.MinComponents),
		zap.Float64("stability", stats.Stability),
		zap.Duration("elapsed", stats.Elapsed),
		zap.NamedError("stability_err", stats.StabilityErr))

	return &Result{Structure: s, Stats: stats, Gaps: p.gaps}, nil
}

func newPacker(grid *voxel.Grid, opts Options) *packer {
	d := grid.Dims()
	owner := make([]int, d.Volume())
	for i := range owner {
		owner[i] = unassigned
	}
	return &packer{
		opts:   opts,
		grid:   grid,
		dims:   d,
		maxDim: opts.Catalog.MaxBrickDimension(),
		owner:  owner,
		shapes: shapesOf(opts),
	}
}

// shapesOf lists every distinct (fx, fy, h) the catalog can place, with
// both orientations of non-square footprints.
func shapesOf(opts Options) []shape {
	seen := make(map[shape]bool)
	var out []shape
	for _, t := range opts.Catalog.Types() {
		for _, s := range []shape{{t.Length, t.Width, t.Height}, {t.Width, t.Length, t.Height}} {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return rankBefore(opts.Strategy, candidate{shape: out[i]}, candidate{shape: out[j]})
	})
	return out
}

func (p *packer) cell(x, y, z int) int {
	return x + y*p.dims.X + z*p.dims.X*p.dims.Y
}

// below returns the owner of the cell under (x,y,z), or unassigned on the
// ground layer.
func (p *packer) below(x, y, z int) int {
	if z == 0 {
		return unassigned
	}
	return p.owner[p.cell(x, y, z-1)]
}

// layer packs every set, unassigned cell of plane z and returns the number
// of bricks placed.
func (p *packer) layer(z int) int {
	placed := 0
	for y := 0; y < p.dims.Y; y++ {
		for x := 0; x < p.dims.X; x++ {
			if !p.grid.At(x, y, z) || p.owner[p.cell(x, y, z)] != unassigned {
				continue
			}
			best, ok := p.best(x, y, z)
			if !ok {
				p.owner[p.cell(x, y, z)] = gap
				p.gaps = append(p.gaps, [3]int{x, y, z})
				continue
			}
			p.place(best.shape, x, y, z)
			placed++
		}
	}
	return placed
}

func (p *packer) best(x, y, z int) (candidate, bool) {
	var (
		best  candidate
		found bool
	)
	reach := p.reach(x, y, z)
	for _, s := range p.shapes {
		if s.fx > reach || !p.fits(s, x, y, z) {
			continue
		}
		c := p.evaluate(s, x, y, z)
		if !found || rankBefore(p.opts.Strategy, c, best) {
			best, found = c, true
		}
	}
	return best, found
}

// reach counts the set, unassigned cells in +X from (x,y,z), capped at the
// catalog's largest footprint side.
func (p *packer) reach(x, y, z int) int {
	n := 0
	for n < p.maxDim && x+n < p.dims.X {
		if !p.grid.At(x+n, y, z) || p.owner[p.cell(x+n, y, z)] != unassigned {
			break
		}
		n++
	}
	return n
}

// fits reports whether every cell of the box at (x,y,z) is in bounds, set
// and unassigned.
func (p *packer) fits(s shape, x, y, z int) bool {
	if x+s.fx > p.dims.X || y+s.fy > p.dims.Y || z+s.h > p.dims.Z {
		return false
	}
	for dz := 0; dz < s.h; dz++ {
		for dy := 0; dy < s.fy; dy++ {
			for dx := 0; dx < s.fx; dx++ {
				cx, cy, cz := x+dx, y+dy, z+dz
				if !p.grid.At(cx, cy, cz) || p.owner[p.cell(cx, cy, cz)] != unassigned {
					return false
				}
			}
		}
	}
	return true
}

// evaluate fills the bonding keys of s placed at (x,y,z). Any brick owning
// a cell under a fitting footprint tops out exactly at z, so every one of
// them is a load-bearing connection.
func (p *packer) evaluate(s shape, x, y, z int) candidate {
	c := candidate{shape: s}
	if z == 0 {
		return c
	}
	var bricks, comps []int
	for dy := 0; dy < s.fy; dy++ {
		for dx := 0; dx < s.fx; dx++ {
			if o := p.below(x+dx, y+dy, z); o >= 0 {
				bricks = append(bricks, o)
				comps = append(comps, p.find(o))
			}
		}
	}
	c.support = len(lo.Uniq(bricks))
	c.merges = len(lo.Uniq(comps))

	// +X face: a joint runs along it when the cells either side of the
	// face, one course down, belong to different bricks.
	if fx := x + s.fx; fx < p.dims.X {
		for dy := 0; dy < s.fy; dy++ {
			if p.joint(fx-1, y+dy, fx, y+dy, z) {
				c.seams++
				break
			}
		}
	}
	// +Y face
	if fy := y + s.fy; fy < p.dims.Y {
		for dx := 0; dx < s.fx; dx++ {
			if p.joint(x+dx, fy-1, x+dx, fy, z) {
				c.seams++
				break
			}
		}
	}
	return c
}

// joint reports whether cells (ax,ay) and (bx,by) of course z-1 belong to
// two different bricks while (bx,by,z) is still open, so the next brick
// would start right on the joint.
func (p *packer) joint(ax, ay, bx, by, z int) bool {
	if !p.grid.At(bx, by, z) || p.owner[p.cell(bx, by, z)] != unassigned {
		return false
	}
	a, b := p.below(ax, ay, z), p.below(bx, by, z)
	return a >= 0 && b >= 0 && a != b
}

func (p *packer) find(i int) int {
	for p.parent[i] != i {
		p.parent[i] = p.parent[p.parent[i]]
		i = p.parent[i]
	}
	return i
}

func (p *packer) union(a, b int) {
	ra, rb := p.find(a), p.find(b)
	if ra != rb {
		p.parent[max(ra, rb)] = min(ra, rb)
	}
}

func (p *packer) place(s shape, x, y, z int) {
	b, err := brick.FromDims(p.opts.Catalog, s.fx, s.fy, s.h, x, y, z)
	if err != nil {
		// shapes come from the catalog itself
		panic(fmt.Sprintf("packer: shape %dx%dx%d vanished from catalog: %v", s.fx, s.fy, s.h, err))
	}
	idx := len(p.bricks)
	p.bricks = append(p.bricks, b)
	p.parent = append(p.parent, idx)
	for dy := 0; dy < s.fy; dy++ {
		for dx := 0; dx < s.fx; dx++ {
			if o := p.below(x+dx, y+dy, z); o >= 0 {
				p.union(idx, o)
			}
		}
	}
	for dz := 0; dz < s.h; dz++ {
		for dy := 0; dy < s.fy; dy++ {
			for dx := 0; dx < s.fx; dx++ {
				p.owner[p.cell(x+dx, y+dy, z+dz)] = idx
			}
		}
	}
}

// rankBefore reports whether a ranks strictly ahead of b.
func rankBefore(st Strategy, a, b candidate) bool {
	ka, kb := rankKeys(st, a), rankKeys(st, b)
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] > kb[i]
		}
	}
	return false
}

// rankKeys returns the ranking keys of c, all higher-is-better. Bonding
// (merges, then fewer seams) leads, except that plate and height priority
// keep their height preference first.
func rankKeys(st Strategy, c candidate) [7]int {
	switch st {
	case StrategyPlates:
		return [7]int{-c.h, c.merges, -c.seams, c.area(), c.support, c.fx, c.fy}
	case StrategyHeight:
		return [7]int{c.h, c.merges, -c.seams, c.area(), c.support, c.fx, c.fy}
	case StrategyVolume:
		return [7]int{c.merges, -c.seams, c.volume(), c.area(), c.support, c.fx, c.fy}
	default:
		return [7]int{c.merges, -c.seams, c.area(), c.h, c.support, c.fx, c.fy}
	}
}

// mergeVertical joins runs of bricks that share x, y and footprint and sit
// exactly on each other, when the catalog has the summed height. The merged
// brick takes the position of the lowest one in the list.
func mergeVertical(opts Options, bricks []brick.Brick) []brick.Brick {
	// 1) Group brick indices by column (position and footprint)
	type column struct{ x, y, fx, fy int }
	groups := make(map[column][]int)
	var order []column
	for i, b := range bricks {
		fx, fy := b.Footprint()
		key := column{b.X, b.Y, fx, fy}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	// 2) Walk each column bottom-up, growing contiguous runs
	removed := make([]bool, len(bricks))
	replaced := make(map[int]brick.Brick)
	for _, key := range order {
		idx := groups[key]
		if len(idx) < 2 {
			continue
		}
		sort.Slice(idx, func(a, b int) bool { return bricks[idx[a]].Z < bricks[idx[b]].Z })
		heights := opts.Catalog.Heights(key.fx, key.fy)
		maxH := heights[len(heights)-1]

		for i := 0; i < len(idx); {
			// 2a) Extend while the next brick sits on the current top;
			//     remember the longest prefix whose height is in the catalog
			first := bricks[idx[i]]
			end, endH := i, first.H
			h, top := first.H, first.Top()
			for j := i + 1; j < len(idx) && bricks[idx[j]].Z == top; j++ {
				h += bricks[idx[j]].H
				top = bricks[idx[j]].Top()
				if h > maxH {
					break
				}
				if _, err := opts.Catalog.DimensionsToBrickID(key.fx, key.fy, h); err == nil {
					end, endH = j, h
				}
			}
			// 2b) Replace the run by one taller brick
			if end > i {
				merged, err := brick.FromDims(opts.Catalog, key.fx, key.fy, endH, first.X, first.Y, first.Z)
				if err == nil {
					replaced[idx[i]] = merged
					for k := i + 1; k <= end; k++ {
						removed[idx[k]] = true
					}
				}
			}
			i = end + 1
		}
	}
	if len(replaced) == 0 {
		return bricks
	}

	// 3) Rebuild in the original order
	out := make([]brick.Brick, 0, len(bricks))
	for i, b := range bricks {
		if removed[i] {
			continue
		}
		if m, ok := replaced[i]; ok {
			b = m
		}
		out = append(out, b)
	}
	opts.Logger.Debug("vertical merge", zap.Int("before", len(bricks)), zap.Int("after", len(out)))
	return out
}

// verify checks bounds, collisions and exact coverage of the set cells
// that are not gaps.
func verify(grid *voxel.Grid, s *structure.Structure, gaps [][3]int) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	bricks := s.Bricks()
	for i, b := range bricks {
		box := b.Box()
		for z := box.Min[brick.AxisZ]; z < box.Max[brick.AxisZ]; z++ {
			for y := box.Min[brick.AxisY]; y < box.Max[brick.AxisY]; y++ {
				for x := box.Min[brick.AxisX]; x < box.Max[brick.AxisX]; x++ {
					if !grid.At(x, y, z) {
						return fmt.Errorf("%w: brick %d (%v) covers empty cell (%d,%d,%d)", ErrInvariant, i, b, x, y, z)
					}
				}
			}
		}
	}
	covered := lo.SumBy(bricks, func(b brick.Brick) int { return b.Volume() })
	if want := grid.Count() - len(gaps); covered != want {
		return fmt.Errorf("%w: bricks cover %d cells, grid has %d coverable", ErrInvariant, covered, want)
	}
	return nil
}

func collectStats(ctx context.Context, grid *voxel.Grid, s *structure.Structure) (Stats, error) {
	stats := Stats{
		Bricks:        s.Len(),
		MinComponents: len(grid.Components()),
	}
	cs, err := s.Connectivity()
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	stats.Components = len(cs.Components())

	score, err := cs.StabilityScore(ctx)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return stats, err
	case err != nil:
		stats.Stability, stats.StabilityErr = 1, err
	default:
		stats.Stability = score
	}
	return stats, nil
}
