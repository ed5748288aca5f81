// Package packer decomposes a voxel occupancy grid into catalog bricks.
//
// What:
//
//   - Pack covers every set cell with exactly one brick, scanning Z layers
//     bottom-up and each layer row-major (y outer, x inner). At the first
//     unassigned cell it tries every catalog footprint in both orientations
//     and every catalog height whose box is fully set, unassigned and in
//     bounds, and places the best by the configured Strategy.
//   - A final pass merges bricks stacked on an identical footprint when the
//     summed height exists in the catalog.
//   - Stats reports brick count, connection components, the lower bound on
//     components (6-connected voxel regions) and the stability score.
//
// Ranking:
//
//	StrategyDefault  merges desc, seams asc, area desc, height desc
//	StrategyPlates   height asc, merges desc, seams asc, area desc
//	StrategyHeight   height desc, merges desc, seams asc, area desc
//	StrategyVolume   merges desc, seams asc, volume desc, area desc
//
//	Then, for all: distinct supporting bricks directly below (desc), x extent
//	(desc), y extent (desc).
//
// merges counts the distinct connection components among the bricks under
// the footprint, so a brick that bridges two towers wins. seams counts the
// far faces (+X, +Y) that would sit right above a joint of the course below
// with the next cell still open. Both are zero on the ground layer.
//
// Complexity: O(C·S·V) for C set cells, S catalog shapes and V the largest
// brick volume, plus the stability solve.
//
// Errors:
//
//   - ErrUncoverableRegion / *UncoverableRegionError: with GapFail, some set
//     cells fit no catalog brick. With GapSkip they are reported in
//     Result.Gaps instead.
//   - ErrInvariant: with Verify, the packing collides, leaves the bounds or
//     miscovers the grid. Always a bug.
//   - ErrOptionViolation: invalid Options.
//   - context errors: checked once per layer, and again after the stability
//     solve so a solver that ignores ctx cannot outlive the deadline.
package packer
