package stability

import (
	"context"
	"fmt"
	"math"
)

// FlowSolver bisects the utilization t in [0, 1]. For a candidate t it builds
// a flow network (source → node with capacity weight, Upper → Lower with
// compression capacity, Lower → Upper with tension capacity, grounded node →
// sink unbounded) and checks with Dinic's algorithm whether the whole weight
// reaches the sink.
//
// Feasibility is monotone in t, so the bisection converges to the same t the
// LP minimizes, within Options.Resolution.
type FlowSolver struct {
	opts Options
}

// NewFlowSolver returns a max-flow-backed Solver.
func NewFlowSolver(opts Options) *FlowSolver { return &FlowSolver{opts: opts} }

// Solve implements Solver.
// Complexity: O(log(1/Resolution) · Dinic(V+2, V+2E+G)).
func (s *FlowSolver) Solve(ctx context.Context, m Model) (float64, error) {
	if err := s.opts.validate(); err != nil {
		return 1, err
	}
	score, done, err := prepare(ctx, m)
	if done {
		return score, err
	}
	resolution := s.opts.Resolution
	if resolution <= 0 {
		resolution = DefaultOptions().Resolution
	}

	total := m.TotalWeight()
	feasible := func(t float64) (bool, error) {
		net := s.network(m, t, total)
		flow, err := net.maxFlow(ctx, m.Len(), m.Len()+1, s.opts.Tolerance)
		if err != nil {
			return false, err
		}
		return flow >= total*(1-1e-9)-s.opts.Tolerance, nil
	}

	ok, err := feasible(1)
	if err != nil {
		return 1, err
	}
	if !ok {
		return 1, nil
	}
	lo, hi := 0.0, 1.0
	for hi-lo > resolution {
		mid := (lo + hi) / 2
		ok, err = feasible(mid)
		if err != nil {
			return 1, fmt.Errorf("%w: bisection at t=%g: %v", ErrSolver, mid, err)
		}
		if ok {
			hi = mid
		} else {
			lo = mid
		}
	}
	return clamp01(hi), nil
}

func (s *FlowSolver) network(m Model, t, total float64) *network {
	n := m.Len()
	src, sink := n, n+1
	net := newNetwork(n + 2)
	for i, w := range m.Weights {
		if w > 0 {
			net.addEdge(src, i, w)
		}
		if m.Grounded[i] {
			net.addEdge(i, sink, total+1)
		}
	}
	for _, e := range m.Edges {
		net.addEdge(e.Upper, e.Lower, t*s.opts.CompressionPerStud*e.Area)
		net.addEdge(e.Lower, e.Upper, t*s.opts.ClutchPerStud*e.Area)
	}
	return net
}

// network is an int-indexed residual graph with paired forward/reverse arcs:
// arc i and arc i^1 are each other's reverse.
type network struct {
	head []int // first arc per node, -1 when none
	next []int
	to   []int
	cap  []float64
}

func newNetwork(n int) *network {
	head := make([]int, n)
	for i := range head {
		head[i] = -1
	}
	return &network{head: head}
}

func (g *network) addEdge(u, v int, c float64) {
	g.to = append(g.to, v, u)
	g.cap = append(g.cap, c, 0)
	g.next = append(g.next, g.head[u], g.head[v])
	g.head[u] = len(g.to) - 2
	g.head[v] = len(g.to) - 1
}

// maxFlow runs Dinic's algorithm: BFS level graph, then blocking flow by DFS,
// repeated until the sink is unreachable. Capacities ≤ eps count as zero.
func (g *network) maxFlow(ctx context.Context, source, sink int, eps float64) (float64, error) {
	n := len(g.head)
	level := make([]int, n)
	iter := make([]int, n)
	var total float64

	// 1) Phases until the sink drops out of the level graph
	for {
		// 1a) Cancellation check per phase
		if err := ctx.Err(); err != nil {
			return total, err
		}
		// 1b) BFS levels over arcs with residual capacity
		for i := range level {
			level[i] = -1
		}
		level[source] = 0
		queue := []int{source}
		for qi := 0; qi < len(queue); qi++ {
			u := queue[qi]
			for a := g.head[u]; a >= 0; a = g.next[a] {
				if v := g.to[a]; g.cap[a] > eps && level[v] < 0 {
					level[v] = level[u] + 1
					queue = append(queue, v)
				}
			}
		}
		// 1c) Sink unreachable: the flow is maximal
		if level[sink] < 0 {
			return total, nil
		}

		// 1d) Blocking flow by DFS, resuming each node's arc iterator
		copy(iter, g.head)
		for {
			pushed := g.push(level, iter, source, sink, math.Inf(1), eps)
			if pushed <= eps {
				break
			}
			total += pushed
		}
	}
}

func (g *network) push(level, iter []int, u, sink int, available, eps float64) float64 {
	if u == sink {
		return available
	}
	for ; iter[u] >= 0; iter[u] = g.next[iter[u]] {
		a := iter[u]
		v := g.to[a]
		if g.cap[a] <= eps || level[v] != level[u]+1 {
			continue
		}
		pushed := g.push(level, iter, v, sink, math.Min(available, g.cap[a]), eps)
		if pushed > eps {
			g.cap[a] -= pushed
			g.cap[a^1] += pushed
			return pushed
		}
	}
	return 0
}
