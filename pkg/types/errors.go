package types

import "errors"

// Domain errors surfaced by the search core and its collaborators
var (
	// ErrInvalidQuery indicates malformed search input: empty query text,
	// non-positive top_k, or an unknown filter key. Never retried.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrRetrievalUnavailable indicates that both the keyword and vector
	// candidate sources failed or timed out. A single failed source is not
	// an error; the search degrades to the remaining source instead.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrRerankUnavailable indicates the cross-encoder reranker failed or
	// timed out. Search never propagates this to callers; it is reported by
	// reranker implementations and downgraded to an unreranked response.
	ErrRerankUnavailable = errors.New("rerank unavailable")

	// ErrChunkNotFound is returned by chunk stores for unknown chunk ids.
	ErrChunkNotFound = errors.New("chunk not found")
)
