// Package types defines the shared data model for the FPGA documentation
// RAG system: chunks of indexed document content, search queries with
// metadata filters, and ranked search results.
//
// Chunks are immutable once indexed. Re-ingesting a new revision of a
// document produces new chunk ids rather than mutating existing chunks, so
// a chunk id is a stable reference to one piece of one revision of one
// document.
package types
