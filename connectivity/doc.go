// Package connectivity derives the adjacency structure of a brick
// arrangement and scores its stability.
//
// What:
//
//   - Structure is an arena of placements indexed by NodeID (insertion
//     order, stable for the structure's lifetime).
//   - NeighborGraph: edge iff two extents share a face with zero gap, on any
//     axis, with positive overlap across the face.
//   - ConnectionGraph: edge iff one brick's top plane equals the other's
//     bottom plane and their footprints overlap. Always a subgraph of the
//     neighbor graph.
//   - Components: connected components of the connection graph
//     (gonum graph/topo).
//   - StabilityScore / IsStable: build a stability.Model from the connection
//     graph and hand it to the configured stability.Solver.
//
// Complexity:
//
//   - AddBricks: O(N log N) expected via the spatial index, plus edges.
//   - HasEdge:   O(log d), d = degree.
//   - Components: O(V + E).
//
// Errors:
//
//   - stability.ErrSolverUnavailable: no solver configured.
//   - Errors from the solver are returned unchanged.
package connectivity
