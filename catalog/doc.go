// Package catalog is the immutable registry of brick shapes available to the
// packer and the serializers.
//
// What:
//
//   - BrickType maps a stable integer id to (length, width, height) in grid units
//     and to the LDraw part identifier used by .ldr files.
//   - Catalog indexes the table by id, by canonical dimension triple and by part id.
//   - Default() returns the process-wide catalog parsed once from the embedded
//     bricks.yaml table.
//
// Canonical footprint:
//
//	Entries are stored under (min(l,w), max(l,w), h), so querying
//	DimensionsToBrickID(6, 2, 3) and DimensionsToBrickID(2, 6, 3) yields the same id.
//
// Concurrency:
//
//	A Catalog is never mutated after Load returns; it is safe to share across
//	goroutines without locking.
//
// Complexity:
//
//   - All lookups: O(1).
//   - Load: O(N log N) for N table entries (sorting by id).
//
// Errors:
//
//   - ErrLookup: unknown id, part id or dimension triple (*LookupError).
//   - ErrInvalidTable: malformed catalog source.
package catalog
