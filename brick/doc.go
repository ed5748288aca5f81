// Package brick defines a single brick placement and its integer geometry.
//
// A Brick is an immutable value: catalog id, canonical dimensions (L <= W, H),
// minimum-corner position (X, Y, Z) and orientation Ori ∈ {0, 1}.
// Orientation 1 swaps L and W when computing the footprint:
//
//	footprint (fx, fy) = (W, L) if Ori == 1, else (L, W)
//	extent             = [X, X+fx) × [Y, Y+fy) × [Z, Z+H)
//
// Square footprints always carry Ori == 0; both orientations occupy the same
// cells, and the normalization keeps every encoding an exact inverse.
//
// Encodings handled here (per brick):
//
//	TXT line: "<fx>x<fy>x<H> (<X>,<Y>,<Z>)\n"  (footprint as drawn)
//	Record:   {"brick_id": id, "x": X, "y": Y, "z": Z, "ori": Ori}
//
// Box carries the half-open extent and the predicates the validity engine is
// built on: Overlaps, Touches, FootprintOverlap and Within.
package brick
