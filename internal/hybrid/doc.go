// Package hybrid implements the hybrid retrieval core: keyword and vector
// candidate lists fused with Reciprocal Rank Fusion (RRF), metadata
// filtering, and an optional cross-encoder rerank pass.
//
// # Basic Usage
//
//	svc := hybrid.NewService(keywordIdx, vectorIdx, chunkStore, reranker, hybrid.Options{})
//
//	resp, err := svc.Search(ctx, types.Query{
//	    Text:      "DDR4 controller initialization",
//	    Embedding: queryVector,
//	    TopK:      10,
//	})
//
// # Reciprocal Rank Fusion
//
// Each chunk is scored by the sum of 1/(k + rank) over every candidate
// list it appears in, where rank is 1-based and k defaults to 60:
//
//	score(c) = Σ_lists 1 / (k + rank_list(c))
//
// A chunk ranked highly in both lists beats a chunk ranked highly in one,
// but appearing in a single list still earns credit. Chunks absent from
// both lists never enter the candidate set.
//
// Filtering happens after fusion so that the rank positions feeding RRF
// reflect the full unfiltered lists; removing competitors before fusion
// would inflate the ranks of the survivors.
//
// # Degraded Mode
//
// The two retrievals run concurrently with independent timeouts. If one
// source fails or times out, its list is treated as empty and the response
// is flagged degraded; fusion then degenerates to a pass-through of the
// surviving list's rank order. Only when both sources fail does Search
// return types.ErrRetrievalUnavailable.
//
// A failed or timed-out rerank is likewise not an error: the response is
// returned fusion-ordered with Reranked=false. Reranking is all or
// nothing per request, never applied to part of the window.
//
// The service owns no persistent state. Every Search invocation is
// self-contained and concurrent requests need no locking.
package hybrid
