package hybrid

import (
	"sort"

	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

// fuse combines the keyword and vector candidate lists with Reciprocal
// Rank Fusion: score(c) = Σ 1/(k + rank), rank 1-based per list. Every
// chunk present in either list appears exactly once in the output; the
// output is unsorted.
func fuse(keyword, vector []ScoredID, k float64) []types.RankedResult {
	byID := make(map[string]*types.RankedResult, len(keyword)+len(vector))

	add := func(id string) *types.RankedResult {
		if r, ok := byID[id]; ok {
			return r
		}
		r := &types.RankedResult{ChunkID: id}
		byID[id] = r
		return r
	}

	for i, sc := range keyword {
		rank := i + 1
		r := add(sc.ChunkID)
		r.FusionScore += 1.0 / (k + float64(rank))
		r.SourceRanks.Keyword = rank
	}
	for i, sc := range vector {
		rank := i + 1
		r := add(sc.ChunkID)
		r.FusionScore += 1.0 / (k + float64(rank))
		r.SourceRanks.Vector = rank
	}

	out := make([]types.RankedResult, 0, len(byID))
	for _, r := range byID {
		out = append(out, *r)
	}
	return out
}

// sortByFusion orders candidates by descending fusion score, breaking ties
// by ascending chunk id so a fixed candidate pool always yields the same
// ordering.
func sortByFusion(results []types.RankedResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].FusionScore != results[j].FusionScore {
			return results[i].FusionScore > results[j].FusionScore
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}

// sortByRerank orders the reranked window by descending rerank score with
// the same chunk-id tie-break. Entries without a rerank score sort after
// scored ones; that only happens if a reranker returns a short batch,
// which the service already treats as a failed rerank.
func sortByRerank(window []types.RankedResult) {
	sort.Slice(window, func(i, j int) bool {
		si, sj := window[i].RerankScore, window[j].RerankScore
		switch {
		case si != nil && sj != nil:
			if *si != *sj {
				return *si > *sj
			}
			return window[i].ChunkID < window[j].ChunkID
		case si != nil:
			return true
		case sj != nil:
			return false
		default:
			return window[i].ChunkID < window[j].ChunkID
		}
	})
}
