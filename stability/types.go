package stability

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for stability computation.
var (
	// ErrSolverUnavailable indicates that no solver could evaluate the model.
	ErrSolverUnavailable = errors.New("stability: solver unavailable")

	// ErrSolver indicates that a solver ran but did not converge.
	ErrSolver = errors.New("stability: solver failed")

	// ErrInvalidModel indicates an inconsistent load model.
	ErrInvalidModel = errors.New("stability: invalid load model")
)

// DefaultThreshold is the score below which a structure counts as stable.
const DefaultThreshold = 0.98

// Edge is one load-bearing connection: Upper rests on Lower with Area studs
// of contact.
type Edge struct {
	Upper, Lower int
	Area         float64
}

// Model is the load model over a connection graph. Node i has weight
// Weights[i] and rests on the ground when Grounded[i] is set.
type Model struct {
	Weights  []float64
	Grounded []bool
	Edges    []Edge
}

// Len reports the number of nodes.
func (m Model) Len() int { return len(m.Weights) }

// TotalWeight sums all node weights.
func (m Model) TotalWeight() float64 {
	var sum float64
	for _, w := range m.Weights {
		sum += w
	}
	return sum
}

// Validate checks indices, lengths and signs.
func (m Model) Validate() error {
	if len(m.Grounded) != len(m.Weights) {
		return fmt.Errorf("%w: %d weights but %d grounded flags", ErrInvalidModel, len(m.Weights), len(m.Grounded))
	}
	for i, w := range m.Weights {
		if w < 0 {
			return fmt.Errorf("%w: node %d has negative weight %g", ErrInvalidModel, i, w)
		}
	}
	n := len(m.Weights)
	for i, e := range m.Edges {
		if e.Upper < 0 || e.Upper >= n || e.Lower < 0 || e.Lower >= n || e.Upper == e.Lower {
			return fmt.Errorf("%w: edge %d (%d→%d) out of range", ErrInvalidModel, i, e.Upper, e.Lower)
		}
		if e.Area <= 0 {
			return fmt.Errorf("%w: edge %d has non-positive area %g", ErrInvalidModel, i, e.Area)
		}
	}
	return nil
}

// Options holds the capacity constants shared by all solvers.
type Options struct {
	// CompressionPerStud is the load one stud of contact carries downward.
	CompressionPerStud float64
	// ClutchPerStud is the load one stud of contact holds when a brick hangs.
	ClutchPerStud float64
	// Tolerance is the numeric tolerance handed to the simplex and used for
	// flow comparisons.
	Tolerance float64
	// Resolution is the bisection width at which FlowSolver stops.
	Resolution float64
	// MaxLPColumns bounds the dense simplex size; larger models make
	// LPSolver report ErrSolverUnavailable. The simplex cannot be canceled
	// once started, so the bound also caps how long a deadline can be
	// overrun. Zero disables the bound.
	MaxLPColumns int
}

// DefaultLPColumns is the default MaxLPColumns: about sixty connections,
// which the dense simplex settles in milliseconds.
const DefaultLPColumns = 256

// DefaultOptions returns capacities tuned for stud·plate weights:
// CompressionPerStud=1000, ClutchPerStud=10, Tolerance=1e-9,
// Resolution=1e-6, MaxLPColumns=DefaultLPColumns.
func DefaultOptions() Options {
	return Options{
		CompressionPerStud: 1000,
		ClutchPerStud:      10,
		Tolerance:          1e-9,
		Resolution:         1e-6,
		MaxLPColumns:       DefaultLPColumns,
	}
}

func (o Options) validate() error {
	if o.CompressionPerStud <= 0 || o.ClutchPerStud <= 0 {
		return fmt.Errorf("%w: capacities must be positive (compression %g, clutch %g)",
			ErrSolverUnavailable, o.CompressionPerStud, o.ClutchPerStud)
	}
	return nil
}

// Solver computes a stability score in [0, 1] for a load model.
type Solver interface {
	Solve(ctx context.Context, m Model) (float64, error)
}

// SolverFunc adapts a function to Solver.
type SolverFunc func(ctx context.Context, m Model) (float64, error)

// Solve calls f.
func (f SolverFunc) Solve(ctx context.Context, m Model) (float64, error) { return f(ctx, m) }

// Chain returns a Solver that tries each solver in order and returns the
// first result that is not ErrSolverUnavailable.
func Chain(solvers ...Solver) Solver {
	return SolverFunc(func(ctx context.Context, m Model) (float64, error) {
		err := ErrSolverUnavailable
		for _, s := range solvers {
			if s == nil {
				continue
			}
			var score float64
			score, err = s.Solve(ctx, m)
			if err == nil || !errors.Is(err, ErrSolverUnavailable) {
				return score, err
			}
		}
		return 1, err
	})
}

// Default returns the LP solver for small models and the flow solver for
// everything above DefaultLPColumns. Only the flow solver observes ctx
// between iterations, so it carries every realistically sized build.
func Default() Solver {
	opts := DefaultOptions()
	return Chain(NewLPSolver(opts), NewFlowSolver(opts))
}
