package hybrid

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

// Default tuning constants. The RRF constant and candidate pool size are
// configurable via Options; these are the values used when unset.
const (
	DefaultRRFConstant      = 60.0
	DefaultCandidatePool    = 100
	DefaultRerankK          = 50
	DefaultRetrievalTimeout = 2 * time.Second
	DefaultRerankTimeout    = 5 * time.Second
)

// ScoredID is one entry of a ranked candidate list: a chunk id with the
// source's native relevance score, best first.
type ScoredID struct {
	ChunkID string
	Score   float64
}

// KeywordIndex is the BM25-style full-text collaborator.
type KeywordIndex interface {
	// QueryKeyword returns up to limit chunk ids ranked best first.
	QueryKeyword(ctx context.Context, text string, limit int) ([]ScoredID, error)
}

// VectorIndex is the nearest-neighbor collaborator over chunk embeddings.
type VectorIndex interface {
	// QueryVector returns up to limit chunk ids ranked best first.
	QueryVector(ctx context.Context, embedding []float32, limit int) ([]ScoredID, error)
}

// Reranker is the cross-encoder collaborator. Scores are returned in the
// same order as the input texts; higher is more relevant.
type Reranker interface {
	ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, error)
}

// ChunkStore resolves chunk ids to their metadata and text, used for
// filtering, reranking, and result presentation.
type ChunkStore interface {
	// GetChunks returns the chunks found for the given ids, keyed by id.
	// Unknown ids are simply absent from the map, not an error.
	GetChunks(ctx context.Context, ids []string) (map[string]*types.Chunk, error)
}

// Options tunes a Service. Zero values select the defaults above.
type Options struct {
	// RRFConstant is the smoothing constant k in 1/(k+rank).
	RRFConstant float64

	// CandidatePool is how many candidates each source is asked for,
	// deliberately larger than any top_k so fusion has room to reorder.
	CandidatePool int

	// RerankK bounds the rerank window when the query does not set one.
	RerankK int

	// RetrievalTimeout bounds each of the two candidate retrievals.
	RetrievalTimeout time.Duration

	// RerankTimeout bounds the batched cross-encoder call.
	RerankTimeout time.Duration

	Logger *zap.Logger
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.RRFConstant <= 0 {
		out.RRFConstant = DefaultRRFConstant
	}
	if out.CandidatePool <= 0 {
		out.CandidatePool = DefaultCandidatePool
	}
	if out.RerankK <= 0 {
		out.RerankK = DefaultRerankK
	}
	if out.RetrievalTimeout <= 0 {
		out.RetrievalTimeout = DefaultRetrievalTimeout
	}
	if out.RerankTimeout <= 0 {
		out.RerankTimeout = DefaultRerankTimeout
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}

// Response carries the ranked results plus quality signals the caller can
// use to distinguish a full-fidelity answer from a degraded one.
type Response struct {
	Results []types.RankedResult

	// Reranked is true when the cross-encoder pass was applied to the
	// rerank window. False when no reranker is configured or it failed.
	Reranked bool

	// Degraded is true when one candidate source was unavailable and the
	// ranking came from the other source alone.
	Degraded bool

	// DegradedSource names the source that was unavailable ("keyword" or
	// "vector") when Degraded is true.
	DegradedSource string

	// KeywordHits and VectorHits are the raw candidate counts per source.
	KeywordHits int
	VectorHits  int

	Duration time.Duration
}
