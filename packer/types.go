package packer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/voxbrick/catalog"
	"github.com/katalvlaran/voxbrick/stability"
	"github.com/katalvlaran/voxbrick/structure"
)

var (
	// ErrUncoverableRegion indicates set cells no catalog brick can cover.
	ErrUncoverableRegion = errors.New("packer: uncoverable region")

	// ErrInvariant indicates a packing that violates its own guarantees.
	ErrInvariant = errors.New("packer: invariant violated")

	// ErrOptionViolation indicates invalid Options.
	ErrOptionViolation = errors.New("packer: option violation")
)

// UncoverableRegionError lists the cells that could not be covered.
type UncoverableRegionError struct {
	Cells [][3]int
}

func (e *UncoverableRegionError) Error() string {
	if len(e.Cells) == 0 {
		return ErrUncoverableRegion.Error()
	}
	c := e.Cells[0]
	return fmt.Sprintf("packer: %d cells fit no catalog brick, first at (%d,%d,%d)", len(e.Cells), c[0], c[1], c[2])
}

func (e *UncoverableRegionError) Unwrap() error { return ErrUncoverableRegion }

// Strategy selects the candidate ranking.
type Strategy int

const (
	// StrategyDefault prefers the largest footprint, then the tallest brick.
	StrategyDefault Strategy = iota
	// StrategyPlates prefers the lowest height.
	StrategyPlates
	// StrategyHeight prefers the tallest brick.
	StrategyHeight
	// StrategyVolume prefers the largest volume.
	StrategyVolume
)

var strategyNames = map[Strategy]string{
	StrategyDefault: "default",
	StrategyPlates:  "plates",
	StrategyHeight:  "heightpriority",
	StrategyVolume:  "volume",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a configuration name (case-insensitive) to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "height" {
		return StrategyHeight, nil
	}
	for s, sn := range strategyNames {
		if sn == n {
			return s, nil
		}
	}
	return StrategyDefault, fmt.Errorf("%w: unknown strategy %q", ErrOptionViolation, name)
}

// GapPolicy decides what happens to uncoverable cells.
type GapPolicy int

const (
	// GapFail aborts the pack with *UncoverableRegionError.
	GapFail GapPolicy = iota
	// GapSkip leaves the cells empty and reports them in Result.Gaps.
	GapSkip
)

// Options configures Pack.
type Options struct {
	Strategy Strategy
	Gaps     GapPolicy
	// VerticalMerge merges bricks stacked on an identical footprint when the
	// catalog has the summed height.
	VerticalMerge bool
	// Verify re-checks collisions, bounds and coverage after packing.
	Verify bool
	// Catalog defaults to catalog.Default().
	Catalog *catalog.Catalog
	// Solver computes Stats.Stability. nil records
	// stability.ErrSolverUnavailable in Stats.StabilityErr.
	Solver stability.Solver
	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

// DefaultOptions returns StrategyDefault, GapFail, VerticalMerge and Verify
// enabled, the default catalog and stability.Default().
func DefaultOptions() Options {
	return Options{
		Strategy:      StrategyDefault,
		Gaps:          GapFail,
		VerticalMerge: true,
		Verify:        true,
		Catalog:       catalog.Default(),
		Solver:        stability.Default(),
		Logger:        zap.NewNop(),
	}
}

func (o *Options) normalize() error {
	if _, ok := strategyNames[o.Strategy]; !ok {
		return fmt.Errorf("%w: strategy %d", ErrOptionViolation, int(o.Strategy))
	}
	if o.Gaps != GapFail && o.Gaps != GapSkip {
		return fmt.Errorf("%w: gap policy %d", ErrOptionViolation, int(o.Gaps))
	}
	if o.Catalog == nil {
		o.Catalog = catalog.Default()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return nil
}

// Result is the outcome of a successful Pack.
type Result struct {
	Structure *structure.Structure
	Stats     Stats
	// Gaps lists uncovered cells under GapSkip, in scan order.
	Gaps [][3]int
}

// Stats summarizes one packing run.
type Stats struct {
	Elapsed time.Duration
	Bricks  int
	// Components counts connected components of the connection graph.
	Components int
	// MinComponents counts 6-connected regions of the grid, the best any
	// packing can reach.
	MinComponents int
	// Stability is the solver score, or 1 when StabilityErr is set.
	Stability    float64
	StabilityErr error
}

// String renders the run-log line.
func (s Stats) String() string {
	return fmt.Sprintf("Finished in time: %.2f s | # bricks: %d | # connected components: %d | # min connected components possible: %d | Stability: %.4f",
		s.Elapsed.Seconds(), s.Bricks, s.Components, s.MinComponents, s.Stability)
}
