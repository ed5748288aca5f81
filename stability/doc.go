// Package stability estimates whether a brick arrangement can carry its own
// weight in static equilibrium.
//
// What:
//
//   - Model is the load model: one node per brick (weight = volume in
//     stud·plate units), one Edge per load-bearing connection (upper brick,
//     lower brick, stud contact area), and a Grounded flag for bricks resting
//     on z = 0.
//   - Solver turns a Model into a score in [0, 1]: low = rigid,
//     near 1 = unstable or disconnected from the ground.
//
// Load model:
//
//	Every brick's weight must reach the ground. Along a connection the
//	upper brick may press down on the lower one (compression, capacity
//	CompressionPerStud·area) or the lower brick may hang from the upper one
//	(tension, capacity ClutchPerStud·area). Grounded bricks drain into the
//	ground without limit. The score is the smallest uniform utilization t
//	such that all loads reach the ground with every edge flow ≤ t·capacity.
//	Bricks with no connection path to a grounded brick score 1 outright.
//	Moments are not modelled; this is a force-balance estimate only.
//
// Solvers:
//
//   - LPSolver:   minimizes t directly with gonum's simplex (optimize/convex/lp).
//   - FlowSolver: bisects t, checking feasibility with Dinic max-flow.
//   - Chain:      tries solvers in order, moving on when one is unavailable.
//
// Errors:
//
//   - ErrSolverUnavailable: no solver, or the solver cannot handle the model.
//   - ErrSolver:            the solver ran and failed to converge.
//   - ErrInvalidModel:      inconsistent Model (bad indices, negative weights).
//
// All are recoverable; callers may fall back to the floating-bricks heuristic.
package stability
