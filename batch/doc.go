// Package batch runs independent packing jobs in parallel.
//
// Each job owns its grid, structure and graphs; the catalog is shared
// read-only. A job that fails or panics never affects the others. A job
// that exceeds Options.Timeout is abandoned and reported as StatusSkipped,
// a distinct outcome from StatusFailed that callers should not retry.
//
// Workers are bounded by Options.Workers via golang.org/x/sync/errgroup.
// Finished structures can be persisted through a Sink; DirSink writes
// <id>.txt and <id>.ldr files.
package batch
