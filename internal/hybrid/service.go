package hybrid

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

// Service coordinates one hybrid search: concurrent candidate retrieval,
// RRF fusion, metadata filtering, and the optional rerank pass.
type Service struct {
	keyword  KeywordIndex
	vector   VectorIndex
	chunks   ChunkStore
	reranker Reranker // nil disables reranking
	opts     Options
	logger   *zap.Logger
}

// NewService creates a search service. The reranker may be nil, in which
// case results are returned fusion-ordered.
func NewService(keyword KeywordIndex, vector VectorIndex, chunks ChunkStore, reranker Reranker, opts Options) *Service {
	o := opts.withDefaults()
	return &Service{
		keyword:  keyword,
		vector:   vector,
		chunks:   chunks,
		reranker: reranker,
		opts:     o,
		logger:   o.Logger,
	}
}

// sourceResult holds the outcome of one candidate retrieval.
type sourceResult struct {
	ids []ScoredID
	err error
}

// Search runs the full hybrid pipeline for one query. It is safe for
// concurrent use; no state is shared between invocations.
func (s *Service) Search(ctx context.Context, q types.Query) (*Response, error) {
	start := time.Now()

	if err := q.Validate(); err != nil {
		return nil, err
	}

	keywordCh := make(chan sourceResult, 1)
	vectorCh := make(chan sourceResult, 1)

	go s.runKeyword(ctx, q.Text, keywordCh)
	go s.runVector(ctx, q.Embedding, vectorCh)

	var kwRes, vecRes sourceResult
	var kwDone, vecDone bool
	for !kwDone || !vecDone {
		select {
		case kwRes = <-keywordCh:
			kwDone = true
		case vecRes = <-vectorCh:
			vecDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if kwRes.err != nil && vecRes.err != nil {
		// Caller cancellation is not a retrieval failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: keyword: %v; vector: %v",
			types.ErrRetrievalUnavailable, kwRes.err, vecRes.err)
	}

	resp := &Response{
		KeywordHits: len(kwRes.ids),
		VectorHits:  len(vecRes.ids),
	}
	switch {
	case kwRes.err != nil:
		resp.Degraded = true
		resp.DegradedSource = "keyword"
		s.logger.Warn("keyword source unavailable, degrading to vector-only ranking",
			zap.Error(kwRes.err))
	case vecRes.err != nil:
		resp.Degraded = true
		resp.DegradedSource = "vector"
		s.logger.Warn("vector source unavailable, degrading to keyword-only ranking",
			zap.Error(vecRes.err))
	}

	candidates := fuse(kwRes.ids, vecRes.ids, s.opts.RRFConstant)

	candidates, err := s.applyFilters(ctx, candidates, q.Filters)
	if err != nil {
		return nil, err
	}

	sortByFusion(candidates)

	rerankK := q.RerankK
	if rerankK == 0 {
		rerankK = s.opts.RerankK
	}
	candidates, resp.Reranked = s.rerank(ctx, q.Text, candidates, rerankK)

	if len(candidates) > q.TopK {
		candidates = candidates[:q.TopK]
	}
	resp.Results = candidates
	resp.Duration = time.Since(start)
	return resp, nil
}

// runKeyword issues the keyword retrieval under its own timeout. A timeout
// or error is reported on the channel; the caller decides whether that
// degrades the response or fails the request.
func (s *Service) runKeyword(ctx context.Context, text string, ch chan<- sourceResult) {
	var res sourceResult
	if s.keyword == nil {
		res.err = fmt.Errorf("no keyword index configured")
	} else {
		cctx, cancel := context.WithTimeout(ctx, s.opts.RetrievalTimeout)
		defer cancel()
		res.ids, res.err = s.keyword.QueryKeyword(cctx, text, s.opts.CandidatePool)
	}
	select {
	case ch <- res:
	case <-ctx.Done():
	}
}

// runVector issues the vector retrieval under its own timeout. A nil
// embedding means the caller could not produce one; the source is then
// reported unavailable rather than queried with garbage.
func (s *Service) runVector(ctx context.Context, embedding []float32, ch chan<- sourceResult) {
	var res sourceResult
	switch {
	case s.vector == nil:
		res.err = fmt.Errorf("no vector index configured")
	case len(embedding) == 0:
		res.err = fmt.Errorf("no query embedding available")
	default:
		cctx, cancel := context.WithTimeout(ctx, s.opts.RetrievalTimeout)
		defer cancel()
		res.ids, res.err = s.vector.QueryVector(cctx, embedding, s.opts.CandidatePool)
	}
	select {
	case ch <- res:
	case <-ctx.Done():
	}
}

// applyFilters attaches chunk metadata to the fused candidates and drops
// the ones that fail any set filter. Candidates the store has no record
// for are kept (without payload) on an unfiltered search but excluded when
// filters are set, since their metadata cannot be verified.
func (s *Service) applyFilters(ctx context.Context, candidates []types.RankedResult, filters types.Filters) ([]types.RankedResult, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	ids := make([]string, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ChunkID
	}

	chunks, err := s.chunks.GetChunks(ctx, ids)
	if err != nil {
		if !filters.IsZero() {
			return nil, fmt.Errorf("failed to load chunk metadata for filtering: %w", err)
		}
		// Unfiltered search can still rank without payloads.
		s.logger.Warn("chunk store unavailable, returning results without chunk payloads",
			zap.Error(err))
		return candidates, nil
	}

	kept := candidates[:0]
	for i := range candidates {
		chunk, ok := chunks[candidates[i].ChunkID]
		if !ok {
			if filters.IsZero() {
				kept = append(kept, candidates[i])
			}
			continue
		}
		if !filters.Match(chunk) {
			continue
		}
		candidates[i].Chunk = chunk
		kept = append(kept, candidates[i])
	}
	return kept, nil
}

// rerank applies the cross-encoder to the top min(rerankK, len) fusion
// candidates in one batched call. On any failure the fusion ordering is
// returned untouched; a rerank is never applied to part of the window.
// Candidates beyond the window keep their fusion order and are never
// promoted above reranked items.
func (s *Service) rerank(ctx context.Context, queryText string, candidates []types.RankedResult, rerankK int) ([]types.RankedResult, bool) {
	if s.reranker == nil || len(candidates) == 0 {
		return candidates, false
	}

	n := rerankK
	if n > len(candidates) {
		n = len(candidates)
	}
	window := candidates[:n]

	texts := make([]string, n)
	haveText := false
	for i := range window {
		if window[i].Chunk != nil {
			texts[i] = window[i].Chunk.Text
			haveText = true
		}
	}
	// Without any chunk text there is nothing for the cross-encoder to
	// score; keep the fusion ordering.
	if !haveText {
		s.logger.Warn("rerank skipped, no chunk text available for the window")
		return candidates, false
	}

	cctx, cancel := context.WithTimeout(ctx, s.opts.RerankTimeout)
	defer cancel()

	scores, err := s.reranker.ScoreBatch(cctx, queryText, texts)
	if err != nil {
		s.logger.Warn("rerank failed, returning fusion-ordered results", zap.Error(err))
		return candidates, false
	}
	if len(scores) != n {
		s.logger.Warn("reranker returned wrong score count, returning fusion-ordered results",
			zap.Int("want", n), zap.Int("got", len(scores)))
		return candidates, false
	}

	for i := range window {
		score := scores[i]
		window[i].RerankScore = &score
	}
	sortByRerank(window)
	return candidates, true
}
