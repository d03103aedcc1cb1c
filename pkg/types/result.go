package types

// SourceRanks records the 1-based rank a chunk held in each contributing
// candidate list. Zero means the chunk was absent from that list. Kept for
// diagnostics and for explaining fused scores.
type SourceRanks struct {
	Keyword int `json:"keyword,omitempty"`
	Vector  int `json:"vector,omitempty"`
}

// RankedResult is one entry in a fused (and possibly reranked) result list.
type RankedResult struct {
	ChunkID string `json:"chunk_id"`

	// FusionScore is the reciprocal rank fusion score over the candidate
	// lists the chunk appeared in.
	FusionScore float64 `json:"fusion_score"`

	// RerankScore is set only when the chunk was inside the rerank window
	// and the cross-encoder call succeeded.
	RerankScore *float64 `json:"rerank_score,omitempty"`

	SourceRanks SourceRanks `json:"source_ranks"`

	// Chunk carries the full metadata and text for presentation. Nil when
	// the chunk store had no record for the id.
	Chunk *Chunk `json:"chunk,omitempty"`
}

// EffectiveScore is the score a result is ordered by: the rerank score when
// present, the fusion score otherwise.
func (r *RankedResult) EffectiveScore() float64 {
	if r.RerankScore != nil {
		return *r.RerankScore
	}
	return r.FusionScore
}
