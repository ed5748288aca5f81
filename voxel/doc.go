// Package voxel holds the dense occupancy grid handed to the packer.
//
// What:
//
//   - Grid is a boolean [X][Y][Z] array; a set cell must be covered by
//     exactly one brick.
//   - Components finds 6-connected regions of set cells, the lower bound on
//     the number of connected brick components any packing can reach.
//
// Complexity:
//
//   - At, Set, InBounds: O(1).
//   - Count:             O(X·Y·Z).
//   - Components:        O(X·Y·Z·6), Memory: O(X·Y·Z).
//
// Errors:
//
//   - ErrEmptyGrid:      a dimension is zero.
//   - ErrNonRectangular: nested slices of differing lengths.
//   - ErrOutOfBounds:    Set outside the grid.
package voxel
