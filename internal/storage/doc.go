// Package storage persists the document manifest, chunk metadata, and
// chunk embeddings in SQLite, and serves as both the vector candidate
// source and the chunk store for hybrid search.
//
// # Schema
//
// Three tables:
//
//   - documents: one row per ingested (doc_id, revision) pair. This table
//     doubles as the ingestion manifest: rows carry a sha256 checksum for
//     dedup and a status lifecycle (staged → extracting → indexing →
//     ready, or failed).
//   - chunks: immutable retrievable units keyed by their stable chunk id.
//   - embeddings: one vector blob per chunk, serialized little-endian
//     float32.
//
// # Vector search
//
// QueryVector brute-forces cosine similarity over all stored embeddings
// in Go. For the corpus sizes this server targets (tens of vendor PDFs,
// low tens of thousands of chunks) a linear scan is well under the
// retrieval timeout; no ANN structure is maintained.
//
// # Drivers
//
// The SQLite driver is chosen at build time: modernc.org/sqlite (pure Go,
// default) or mattn/go-sqlite3 with -tags cgo_sqlite. See build_purego.go
// and build_cgo.go.
package storage
