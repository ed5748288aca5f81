package stability

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// LPSolver minimizes the uniform utilization t as a linear program in
// standard form (minimize cᵀx s.t. Ax = b, x ≥ 0) solved by gonum's simplex.
//
// Variables, in column order:
//
//	fd[e], fu[e]   compression and tension flow on edge e (interleaved)
//	g[k]           drain of the k-th grounded node into the ground
//	t              utilization
//	s[r]           slack of capacity row r
//
// Rows: one conservation row per node (outflow − inflow = weight) and one
// capacity row per flow variable (f − cap·t + s = 0).
type LPSolver struct {
	opts Options
}

// NewLPSolver returns an LP-backed Solver.
func NewLPSolver(opts Options) *LPSolver { return &LPSolver{opts: opts} }

// Solve implements Solver.
//
// Errors: ErrSolverUnavailable when the options are invalid or the model
// exceeds MaxLPColumns; ErrSolver when the simplex fails.
// Complexity: dense simplex over (V + 2E) × (4E + G + 1).
func (s *LPSolver) Solve(ctx context.Context, m Model) (float64, error) {
	if err := s.opts.validate(); err != nil {
		return 1, err
	}
	score, done, err := prepare(ctx, m)
	if done {
		return score, err
	}

	n, ne := m.Len(), len(m.Edges)
	grounded := make([]int, 0, n)
	for i, g := range m.Grounded {
		if g {
			grounded = append(grounded, i)
		}
	}
	gCol := 2 * ne
	tCol := gCol + len(grounded)
	sCol := tCol + 1
	rows := n + 2*ne
	cols := sCol + 2*ne
	if s.opts.MaxLPColumns > 0 && cols > s.opts.MaxLPColumns {
		return 1, fmt.Errorf("%w: %d columns exceed the dense simplex bound %d",
			ErrSolverUnavailable, cols, s.opts.MaxLPColumns)
	}

	A := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	copy(b, m.Weights)

	for e, edge := range m.Edges {
		fd, fu := 2*e, 2*e+1
		// compression: Upper sends, Lower receives
		A.Set(edge.Upper, fd, 1)
		A.Set(edge.Lower, fd, -1)
		// tension: Lower sends, Upper receives
		A.Set(edge.Lower, fu, 1)
		A.Set(edge.Upper, fu, -1)

		rd, ru := n+fd, n+fu
		A.Set(rd, fd, 1)
		A.Set(ru, fu, 1)
		A.Set(rd, tCol, -s.opts.CompressionPerStud*edge.Area)
		A.Set(ru, tCol, -s.opts.ClutchPerStud*edge.Area)
		A.Set(rd, sCol+fd, 1)
		A.Set(ru, sCol+fu, 1)
	}
	for k, i := range grounded {
		A.Set(i, gCol+k, 1)
	}

	c := make([]float64, cols)
	c[tCol] = 1

	if err := ctx.Err(); err != nil {
		return 1, err
	}
	optF, _, err := lp.Simplex(c, A, b, s.opts.Tolerance, nil)
	if err != nil {
		return 1, fmt.Errorf("%w: simplex: %v", ErrSolver, err)
	}
	return clamp01(optF), nil
}
