// Package voxbrick turns dense voxel occupancy grids into structurally
// valid brick builds and checks arbitrary brick arrangements.
//
// What is inside:
//
//	catalog/      — immutable brick table: id ↔ dimensions ↔ LDraw part
//	brick/        — one placement: position, orientation, extent box, TXT/record lines
//	spatial/      — R-tree over brick extents for collision and adjacency candidates
//	structure/    — ordered arrangement, validity checks, TXT / record / LDraw codecs
//	connectivity/ — neighbor and connection graphs, components, stability entry point
//	stability/    — load model and solvers (gonum simplex, Dinic max-flow)
//	voxel/        — dense occupancy grid and 6-connected components
//	packer/       — voxel-to-brick decomposition with ranking strategies
//	batch/        — bounded parallel packing with per-job timeouts
//
// Data flow:
//
//	voxel.Grid ──packer.Pack──▶ structure.Structure ──▶ Validate / IsStable
//	                                    │
//	                                    └──▶ Txt / RecordJSON / RecordCBOR / Ldr
//
// Quick example:
//
//	g, _ := voxel.New(brick.Cube(20))
//	g.Fill(brick.Box{Max: [3]int{4, 6, 9}})
//	res, err := packer.Pack(ctx, g, packer.DefaultOptions())
//	if err != nil { ... }
//	ldr, _ := res.Structure.Ldr()
//	fmt.Println(res.Stats)
//
// Mesh loading, voxelization and rendering live outside this module.
package voxbrick
