// Package keyword provides the Bleve-backed full-text index used as the
// keyword candidate source for hybrid search.
package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/jonzo97/mchp-fpga-mcp/internal/hybrid"
	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

// indexedChunk is the document shape stored in Bleve. Only the fields
// useful for lexical matching are indexed; everything else lives in the
// chunk store.
type indexedChunk struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Section string `json:"section"`
}

// Index is a Bleve full-text index over chunk text. It implements
// hybrid.KeywordIndex.
type Index struct {
	index bleve.Index
}

// Open creates or opens a Bleve index at path. An existing index is
// reused so unchanged documents are not re-indexed across restarts. If
// the mapping here changes, remove the index directory to force a
// rebuild.
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open keyword index: %w", openErr)
		}
		return &Index{index: idx}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) so vendor part
	// numbers and register names like "PF_CCC" match exactly.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("section", textFieldMapping)
	docMapping.AddFieldMappingsAt("id", bleve.NewKeywordFieldMapping())

	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}
	return &Index{index: idx}, nil
}

// OpenMemory creates an in-memory index, used by tests and one-shot runs.
func OpenMemory() (*Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("section", textFieldMapping)
	docMapping.AddFieldMappingsAt("id", bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory keyword index: %w", err)
	}
	return &Index{index: idx}, nil
}

// IndexChunk adds or replaces one chunk in the index.
func (x *Index) IndexChunk(ctx context.Context, chunk *types.Chunk) error {
	if err := chunk.Validate(); err != nil {
		return err
	}
	return x.index.Index(chunk.ChunkID, indexedChunk{
		ID:      chunk.ChunkID,
		Text:    chunk.Text,
		Section: chunk.SectionString(),
	})
}

// IndexBatch adds chunks in one Bleve batch, which is considerably faster
// than per-document Index calls during ingestion.
func (x *Index) IndexBatch(ctx context.Context, chunks []*types.Chunk) error {
	batch := x.index.NewBatch()
	for _, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return err
		}
		if err := batch.Index(chunk.ChunkID, indexedChunk{
			ID:      chunk.ChunkID,
			Text:    chunk.Text,
			Section: chunk.SectionString(),
		}); err != nil {
			return err
		}
	}
	return x.index.Batch(batch)
}

// Delete removes one chunk from the index.
func (x *Index) Delete(ctx context.Context, chunkID string) error {
	return x.index.Delete(chunkID)
}

// DeleteBatch removes chunks in one Bleve batch, used when a document
// revision is re-ingested.
func (x *Index) DeleteBatch(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	batch := x.index.NewBatch()
	for _, id := range chunkIDs {
		batch.Delete(id)
	}
	return x.index.Batch(batch)
}

// QueryKeyword runs a match query and returns up to limit chunk ids, best
// first, implementing hybrid.KeywordIndex.
func (x *Index) QueryKeyword(ctx context.Context, text string, limit int) ([]hybrid.ScoredID, error) {
	q := bleve.NewMatchQuery(text)
	req := bleve.NewSearchRequest(q)
	req.Size = limit

	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	out := make([]hybrid.ScoredID, len(res.Hits))
	for i, hit := range res.Hits {
		out[i] = hybrid.ScoredID{ChunkID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// DocCount returns the number of chunks in the index.
func (x *Index) DocCount() (uint64, error) {
	return x.index.DocCount()
}

// Close closes the underlying Bleve index.
func (x *Index) Close() error {
	return x.index.Close()
}
