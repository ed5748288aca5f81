// Package structure holds an ordered brick arrangement, answers validity
// queries about it and converts it to and from its interchange formats.
//
// What:
//
//   - Structure: bricks in insertion order plus a world bound (default
//     20x20x20). Insertion order fixes serialization order and LDraw steps.
//   - Validity: BrickInBounds, HasCollisions / Collisions, BrickFloats /
//     HasFloatingBricks / FloatingBricks, Validate, StabilityScore, IsStable.
//   - Formats: TXT lines, structured records (map, JSON, CBOR) and LDraw.
//     Every decoder is the exact inverse of its encoder.
//
// Formats:
//
//	TXT     "<fx>x<fy>x<h> (<x>,<y>,<z>)\n" per brick
//	Record  {"1": {"brick_id": id, "x": x, "y": y, "z": z, "ori": 0|1}, ...}
//	LDraw   "1 115 <x> <y> <z> <rotation> <part>.DAT\n0 STEP\n" per brick
//	        x = 20·(X + fx/2), z = 20·(Y + fy/2), y = -8·Z
//
// Errors:
//
//   - ErrFormat / *FormatError: malformed input; decoding aborts at the first
//     bad line or record.
//   - ErrGeometry / *GeometryError: out-of-bounds or overlapping placements
//     reported by Validate.
//   - ErrOptionViolation: invalid option passed to a constructor.
//   - catalog.ErrLookup: unknown brick id, dimensions or part.
//   - stability.ErrSolverUnavailable, stability.ErrSolver: recoverable; fall
//     back to HasFloatingBricks.
package structure
