package structure

import (
	"fmt"
	"slices"
	"sort"

	"github.com/katalvlaran/voxbrick/brick"
	"github.com/katalvlaran/voxbrick/catalog"
	"github.com/katalvlaran/voxbrick/spatial"
	"github.com/katalvlaran/voxbrick/stability"
)

// DefaultWorldDim is the side of the default cubic world bound.
const DefaultWorldDim = 20

// Option configures a Structure. Invalid arguments are recorded and
// reported by the constructor as ErrOptionViolation.
type Option func(*config)

type config struct {
	dims      brick.Dims
	cat       *catalog.Catalog
	solver    stability.Solver
	threshold float64
	err       error
}

func newConfig(opts []Option) (config, error) {
	cfg := config{
		dims:      brick.Cube(DefaultWorldDim),
		cat:       catalog.Default(),
		solver:    stability.Default(),
		threshold: stability.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg, cfg.err
}

func (c *config) fail(format string, args ...any) {
	if c.err == nil {
		c.err = fmt.Errorf("%w: "+format, append([]any{ErrOptionViolation}, args...)...)
	}
}

// WithWorldDim sets the world bound; every side must be positive.
func WithWorldDim(d brick.Dims) Option {
	return func(c *config) {
		if !d.Valid() {
			c.fail("world dimensions %v must be positive", d)
			return
		}
		c.dims = d
	}
}

// WithCatalog sets the catalog used by decoders and serializers.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *config) {
		if cat == nil {
			c.fail("nil catalog")
			return
		}
		c.cat = cat
	}
}

// WithSolver sets the stability solver. nil disables the solver, making
// StabilityScore report stability.ErrSolverUnavailable.
func WithSolver(s stability.Solver) Option {
	return func(c *config) { c.solver = s }
}

// WithStabilityThreshold sets the score below which IsStable holds; it must
// lie in (0, 1].
func WithStabilityThreshold(t float64) Option {
	return func(c *config) {
		if t <= 0 || t > 1 {
			c.fail("stability threshold %g outside (0, 1]", t)
			return
		}
		c.threshold = t
	}
}

// Structure is an ordered brick arrangement within a world bound. Bricks
// are appended, never mutated. Not safe for concurrent mutation.
type Structure struct {
	cfg    config
	bricks []brick.Brick
	index  *spatial.Index // lazily built, reset by Add
}

// New returns a Structure holding a copy of bricks.
func New(bricks []brick.Brick, opts ...Option) (*Structure, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Structure{cfg: cfg, bricks: slices.Clone(bricks)}, nil
}

// Add appends bricks in order.
func (s *Structure) Add(bricks ...brick.Brick) {
	s.bricks = append(s.bricks, bricks...)
	s.index = nil
}

// Bricks returns the placements in insertion order. The slice is a copy.
func (s *Structure) Bricks() []brick.Brick { return slices.Clone(s.bricks) }

// Len reports the number of bricks.
func (s *Structure) Len() int { return len(s.bricks) }

// Dims returns the world bound.
func (s *Structure) Dims() brick.Dims { return s.cfg.dims }

// Catalog returns the catalog the structure encodes against.
func (s *Structure) Catalog() *catalog.Catalog { return s.cfg.cat }

// Equal reports brick multiset equality; order and world bound are ignored.
func (s *Structure) Equal(o *Structure) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.bricks) != len(o.bricks) {
		return false
	}
	return slices.Equal(sorted(s.bricks), sorted(o.bricks))
}

// Sorted returns the bricks in brick.Less order.
func (s *Structure) Sorted() []brick.Brick { return sorted(s.bricks) }

func sorted(in []brick.Brick) []brick.Brick {
	out := slices.Clone(in)
	sort.Slice(out, func(i, j int) bool { return brick.Less(out[i], out[j]) })
	return out
}

func (s *Structure) spatialIndex() *spatial.Index {
	if s.index != nil {
		return s.index
	}
	ix := spatial.NewIndex()
	for i, b := range s.bricks {
		// empty extents occupy no cells and cannot touch anything
		if err := ix.Insert(i, b.Box()); err != nil {
			continue
		}
	}
	s.index = ix
	return ix
}
