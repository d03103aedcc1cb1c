package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/jonzo97/mchp-fpga-mcp/internal/embedder"
	"github.com/jonzo97/mchp-fpga-mcp/internal/hybrid"
	"github.com/jonzo97/mchp-fpga-mcp/internal/ingest"
	"github.com/jonzo97/mchp-fpga-mcp/internal/keyword"
	"github.com/jonzo97/mchp-fpga-mcp/internal/storage"
	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

// SearchPipelineTestSuite exercises the full path from raw documents to
// ranked search results: extract, chunk, index, embed, fuse, filter.
type SearchPipelineTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *storage.SQLiteStore
	index    *keyword.Index
	embedder embedder.Embedder
	pipeline *ingest.Pipeline
	search   *hybrid.Service
}

func (s *SearchPipelineTestSuite) SetupTest() {
	s.ctx = context.Background()
	dir := s.T().TempDir()

	store, err := storage.NewSQLiteStore(filepath.Join(dir, "corpus.db"))
	s.Require().NoError(err)
	s.store = store

	index, err := keyword.Open(filepath.Join(dir, "keyword.bleve"))
	s.Require().NoError(err)
	s.index = index

	emb, err := embedder.New(embedder.Config{Provider: embedder.ProviderLocal})
	s.Require().NoError(err)
	s.embedder = emb

	s.pipeline = ingest.New(store, index, emb, zap.NewNop(), nil)
	s.search = hybrid.NewService(index, store, store, nil, hybrid.Options{Logger: zap.NewNop()})

	s.ingestCorpus()
}

func (s *SearchPipelineTestSuite) TearDownTest() {
	s.index.Close()
	s.store.Close()
}

func (s *SearchPipelineTestSuite) ingestCorpus() {
	dir := s.T().TempDir()

	docs := map[string]string{
		"pf_ccc_user_guide_B.txt": "1 Clock Conditioning Circuitry\n\n" +
			"The PF_CCC block provides phase locked loop resources for frequency synthesis.\n\n" +
			"1.1 Output Configuration\n\n" +
			"The OUTPUT_FREQUENCY parameter accepts values from 1 to 1250 MHz. " +
			"Each of the four outputs has an independent postscaler divider.\n\n" +
			"Reference input jitter must stay below the datasheet limit for lock.",
		"pf_xcvr_datasheet_A.txt": "2 Transceiver Electrical Characteristics\n\n" +
			"Transceiver lanes operate from 250 Mbps to 12.7 Gbps. " +
			"The CDR locks to the incoming data stream without an external reference.\n\n" +
			"Lane | Min Rate | Max Rate\nXCVR_0 | 250 Mbps | 12.7 Gbps\nXCVR_1 | 250 Mbps | 12.7 Gbps",
		"timing_app_note_v1.2.txt": "3 SDC Constraint Examples\n\n" +
			"Use create_clock -name REF_CLK -period 10.000 [get_ports clk_in] " +
			"to constrain the primary input clock before running timing analysis.",
	}
	for name, content := range docs {
		path := filepath.Join(dir, name)
		s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	}

	stats, err := s.pipeline.IngestDir(s.ctx, dir)
	s.Require().NoError(err)
	s.Require().Equal(3, stats.Ingested)
	s.Require().Zero(stats.Failed)
}

func (s *SearchPipelineTestSuite) query(text string, filters types.Filters, topK int) *hybrid.Response {
	embedding, err := s.embedder.EmbedText(s.ctx, text)
	s.Require().NoError(err)

	resp, err := s.search.Search(s.ctx, types.Query{
		Text:      text,
		Embedding: embedding,
		Filters:   filters,
		TopK:      topK,
	})
	s.Require().NoError(err)
	return resp
}

func (s *SearchPipelineTestSuite) TestKeywordRelevance() {
	resp := s.query("PF_CCC phase locked loop frequency synthesis", types.Filters{}, 5)

	s.Require().NotEmpty(resp.Results)
	s.Require().NotNil(resp.Results[0].Chunk)
	s.Equal("pf-ccc-user-guide", resp.Results[0].Chunk.DocumentID)
	s.False(resp.Degraded)
	s.Positive(resp.KeywordHits)
	s.Positive(resp.VectorHits)
}

func (s *SearchPipelineTestSuite) TestPartNumberMatching() {
	// Vendor identifiers with underscores must survive analysis intact.
	resp := s.query("XCVR_0 maximum rate", types.Filters{}, 5)

	s.Require().NotEmpty(resp.Results)
	found := false
	for _, r := range resp.Results {
		if r.Chunk != nil && r.Chunk.DocumentID == "pf-xcvr-datasheet" {
			found = true
		}
	}
	s.True(found, "transceiver datasheet should rank for its lane name")
}

func (s *SearchPipelineTestSuite) TestDocumentFilter() {
	resp := s.query("clock", types.Filters{DocumentID: "timing-app-note"}, 10)

	for _, r := range resp.Results {
		s.Require().NotNil(r.Chunk)
		s.Equal("timing-app-note", r.Chunk.DocumentID)
	}
}

func (s *SearchPipelineTestSuite) TestSectionMetadataSurvivesPipeline() {
	resp := s.query("OUTPUT_FREQUENCY parameter values", types.Filters{}, 5)

	s.Require().NotEmpty(resp.Results)
	var sections []string
	for _, r := range resp.Results {
		if r.Chunk != nil && r.Chunk.DocumentID == "pf-ccc-user-guide" {
			sections = append(sections, r.Chunk.SectionString())
		}
	}
	s.Require().NotEmpty(sections)
	joined := strings.Join(sections, "\n")
	s.Contains(joined, "Output Configuration")
}

func (s *SearchPipelineTestSuite) TestDegradedWithoutEmbedding() {
	// No query embedding: the vector source reports unavailable and the
	// ranking comes from keyword retrieval alone.
	resp, err := s.search.Search(s.ctx, types.Query{
		Text: "create_clock SDC constraint",
		TopK: 5,
	})
	s.Require().NoError(err)
	s.True(resp.Degraded)
	s.Equal("vector", resp.DegradedSource)
	s.Require().NotEmpty(resp.Results)
	s.Require().NotNil(resp.Results[0].Chunk)
	s.Equal("timing-app-note", resp.Results[0].Chunk.DocumentID)
}

func (s *SearchPipelineTestSuite) TestManifestReflectsIngest() {
	docs, err := s.store.ListDocumentsByStatus(s.ctx, storage.StatusReady)
	s.Require().NoError(err)
	s.Len(docs, 3)
	for _, doc := range docs {
		s.Positive(doc.ChunkCount)
		s.Positive(doc.PageCount)
	}

	stats, err := s.store.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, stats.Documents)
	s.Equal(stats.Chunks, stats.Embeddings)
}

func (s *SearchPipelineTestSuite) TestReingestIsIdempotent() {
	before, err := s.store.Stats(s.ctx)
	s.Require().NoError(err)

	dir := s.T().TempDir()
	path := filepath.Join(dir, "pf_ccc_user_guide_B.txt")
	s.Require().NoError(os.WriteFile(path, []byte("unrelated"), 0o644))

	// Same doc id and revision but different bytes replaces the chunks.
	_, err = s.pipeline.IngestFile(s.ctx, path, ingest.FileMeta{})
	s.Require().NoError(err)

	after, err := s.store.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(before.Documents, after.Documents)
	s.LessOrEqual(after.Chunks, before.Chunks)
}

func TestSearchPipelineSuite(t *testing.T) {
	suite.Run(t, new(SearchPipelineTestSuite))
}
