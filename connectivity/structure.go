package connectivity

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/katalvlaran/voxbrick/brick"
	"github.com/katalvlaran/voxbrick/spatial"
	"github.com/katalvlaran/voxbrick/stability"
)

// Option configures a Structure.
type Option func(*Structure)

// WithSolver sets the stability solver. A nil solver makes StabilityScore
// report stability.ErrSolverUnavailable.
func WithSolver(s stability.Solver) Option {
	return func(c *Structure) { c.solver = s }
}

// WithThreshold sets the score below which IsStable reports true.
// Values outside (0, 1] are ignored.
func WithThreshold(t float64) Option {
	return func(c *Structure) {
		if t > 0 && t <= 1 {
			c.threshold = t
		}
	}
}

// Structure holds placements and their neighbor and connection graphs.
// It is not safe for concurrent mutation.
type Structure struct {
	dims       brick.Dims
	bricks     []brick.Brick
	index      *spatial.Index
	neighbor   Graph
	connection Graph
	solver     stability.Solver
	threshold  float64
}

// New returns an empty Structure bounded by dims. The default solver is
// stability.Default() with stability.DefaultThreshold.
func New(dims brick.Dims, opts ...Option) *Structure {
	s := &Structure{
		dims:      dims,
		index:     spatial.NewIndex(),
		solver:    stability.Default(),
		threshold: stability.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dims returns the world bound.
func (s *Structure) Dims() brick.Dims { return s.dims }

// Len reports the number of nodes.
func (s *Structure) Len() int { return len(s.bricks) }

// Brick returns the placement of node id.
func (s *Structure) Brick(id NodeID) (brick.Brick, bool) {
	if id < 0 || int(id) >= len(s.bricks) {
		return brick.Brick{}, false
	}
	return s.bricks[id], true
}

// AddBricks appends bricks in order and returns their node ids. Edges to
// every earlier node are added as each brick is inserted.
//
// Errors: a brick with an empty extent is rejected; bricks before it stay
// inserted.
func (s *Structure) AddBricks(bricks []brick.Brick) ([]NodeID, error) {
	ids := make([]NodeID, 0, len(bricks))
	for _, b := range bricks {
		box := b.Box()
		id := NodeID(len(s.bricks))
		candidates := s.index.Candidates(box)
		if err := s.index.Insert(int(id), box); err != nil {
			return ids, fmt.Errorf("connectivity: brick %v: %w", b, err)
		}
		s.bricks = append(s.bricks, b)
		s.neighbor.grow(len(s.bricks))
		s.connection.grow(len(s.bricks))

		for _, c := range candidates {
			other := NodeID(c)
			ob := s.bricks[other].Box()
			if !box.Touches(ob) {
				continue
			}
			s.neighbor.add(id, other)
			if stacked(box, ob) {
				s.connection.add(id, other)
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// stacked reports load-bearing contact: coinciding top/bottom planes with a
// positive footprint overlap.
func stacked(a, b brick.Box) bool {
	if a.Max[brick.AxisZ] != b.Min[brick.AxisZ] && b.Max[brick.AxisZ] != a.Min[brick.AxisZ] {
		return false
	}
	return a.FootprintOverlap(b) > 0
}

// NeighborGraph returns the face-adjacency graph.
func (s *Structure) NeighborGraph() *Graph { return &s.neighbor }

// ConnectionGraph returns the load-bearing contact graph.
func (s *Structure) ConnectionGraph() *Graph { return &s.connection }

// Grounded lists nodes resting on z = 0, ascending.
func (s *Structure) Grounded() []NodeID {
	var out []NodeID
	for i, b := range s.bricks {
		if b.Z == 0 {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// Components returns the connected components of the connection graph.
// Node ids within a component are ascending and components are ordered by
// their smallest id.
func (s *Structure) Components() [][]NodeID {
	g := simple.NewUndirectedGraph()
	for i := range s.bricks {
		g.AddNode(simple.Node(i))
	}
	for _, e := range s.connection.Edges() {
		g.SetEdge(g.NewEdge(simple.Node(e.U), simple.Node(e.V)))
	}

	comps := topo.ConnectedComponents(g)
	out := make([][]NodeID, 0, len(comps))
	for _, comp := range comps {
		ids := make([]NodeID, len(comp))
		for i, n := range comp {
			ids[i] = NodeID(n.ID())
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Model builds the stability load model: node weight is brick volume,
// z = 0 bricks are grounded, and each connection edge carries the footprint
// overlap as its contact area.
func (s *Structure) Model() stability.Model {
	m := stability.Model{
		Weights:  make([]float64, len(s.bricks)),
		Grounded: make([]bool, len(s.bricks)),
		Edges:    make([]stability.Edge, 0, s.connection.EdgeCount()),
	}
	for i, b := range s.bricks {
		m.Weights[i] = float64(b.Volume())
		m.Grounded[i] = b.Z == 0
	}
	for _, e := range s.connection.Edges() {
		upper, lower := e.U, e.V
		if s.bricks[upper].Z < s.bricks[lower].Z {
			upper, lower = lower, upper
		}
		area := s.bricks[upper].Box().FootprintOverlap(s.bricks[lower].Box())
		m.Edges = append(m.Edges, stability.Edge{Upper: int(upper), Lower: int(lower), Area: float64(area)})
	}
	return m
}

// Unsupported lists nodes with no connection path to a grounded node.
func (s *Structure) Unsupported() []NodeID {
	raw := stability.Unsupported(s.Model())
	out := make([]NodeID, len(raw))
	for i, v := range raw {
		out[i] = NodeID(v)
	}
	return out
}

// StabilityScore solves the load model with the configured solver.
// The score lies in [0, 1]; lower is more rigid.
func (s *Structure) StabilityScore(ctx context.Context) (float64, error) {
	if s.solver == nil {
		return 1, fmt.Errorf("%w: no solver configured", stability.ErrSolverUnavailable)
	}
	return s.solver.Solve(ctx, s.Model())
}

// IsStable reports whether the score is below the threshold.
func (s *Structure) IsStable(ctx context.Context) (bool, error) {
	score, err := s.StabilityScore(ctx)
	if err != nil {
		return false, err
	}
	return score < s.threshold, nil
}
