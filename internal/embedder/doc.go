// Package embedder generates dense vector embeddings for document
// chunks and search queries.
//
// Two providers are available:
//
//   - openai: any OpenAI-compatible /embeddings endpoint, selected with
//     an API key. The base URL is configurable so self-hosted servers
//     that speak the same format can be used.
//   - local: deterministic hash-based vectors for offline development
//     and tests. No semantic quality.
//
// All providers share an LRU cache keyed by the SHA-256 of the input
// text, so repeated ingest runs over unchanged documents skip the
// provider entirely. HTTP providers retry transient failures with
// exponential backoff and respect context cancellation.
package embedder
