// Package ingest turns vendor document files into searchable chunks.
//
// The pipeline runs extract -> clean -> chunk -> embed -> index for
// each file, tracking progress on the document manifest:
//
//	staged -> extracting -> indexing -> ready
//	                     \-> failed (with the error recorded)
//
// Files are deduplicated by SHA-256 checksum. Re-ingesting an
// unchanged file is a no-op; a changed file under the same revision
// replaces its chunks wholesale. Chunk ids are deterministic, so both
// indexes stay consistent across runs.
//
// A directory run processes documents concurrently with a bounded
// worker pool; individual document failures are collected rather than
// aborting the run. The Watcher ingests files dropped into an incoming
// directory as they appear.
package ingest
