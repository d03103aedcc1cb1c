package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/jonzo97/mchp-fpga-mcp/internal/hybrid"
)

// QueryVector performs cosine-similarity search over all stored
// embeddings and returns the top ids by descending similarity. The
// corpus is a few hundred documents at most, so a full scan in Go is
// fast enough and keeps both SQLite drivers extension-free.
func (s *SQLiteStore) QueryVector(ctx context.Context, embedding []float32, limit int) ([]hybrid.ScoredID, error) {
	if len(embedding) == 0 {
		return []hybrid.ScoredID{}, nil
	}
	if limit <= 0 {
		return []hybrid.ScoredID{}, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT chunk_id, vector FROM embeddings WHERE dimension = ?", len(embedding))
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]hybrid.ScoredID, 0, 1024)
	for rows.Next() {
		var chunkID string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}

		vector := deserializeVector(blob)
		if len(vector) != len(embedding) {
			continue
		}

		candidates = append(candidates, hybrid.ScoredID{
			ChunkID: chunkID,
			Score:   cosineSimilarity(embedding, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Descending similarity, ascending chunk id on ties
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ChunkID < candidates[j].ChunkID
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	return candidates[:limit], nil
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
