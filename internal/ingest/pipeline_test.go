package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonzo97/mchp-fpga-mcp/internal/embedder"
	"github.com/jonzo97/mchp-fpga-mcp/internal/keyword"
	"github.com/jonzo97/mchp-fpga-mcp/internal/storage"
)

func newTestPipeline(t *testing.T) (*Pipeline, storage.Store, *keyword.Index) {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	index, err := keyword.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	return New(store, index, emb, zap.NewNop(), &Config{Workers: 2}), store, index
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleDoc = `4 Clocking

The clock conditioning circuit provides frequency synthesis, phase
alignment, and jitter filtering for the FPGA fabric.

4.2 PLL Configuration

Each PLL supports four independent output dividers with values from
1 to 255. Lock time depends on the reference frequency.`

func TestIngestFile(t *testing.T) {
	pipeline, store, index := newTestPipeline(t)
	ctx := context.Background()

	path := writeDoc(t, t.TempDir(), "PolarFire_Clocking_UG_B.txt", sampleDoc)

	result, err := pipeline.IngestFile(ctx, path, FileMeta{})
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, "polarfire-clocking-ug", result.DocID)
	assert.Equal(t, "B", result.Revision)
	assert.Greater(t, result.Chunks, 0)

	// Manifest reaches ready with counts recorded
	doc, err := store.GetDocument(ctx, "polarfire-clocking-ug", "B")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusReady, doc.Status)
	assert.Equal(t, result.Chunks, doc.ChunkCount)
	assert.Equal(t, "User Guide", doc.DocType)

	// Chunks landed in both indexes
	ids, err := store.ListChunkIDsByDocument(ctx, "polarfire-clocking-ug", "B")
	require.NoError(t, err)
	assert.Len(t, ids, result.Chunks)

	count, err := index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(result.Chunks), count)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Chunks, stats.Embeddings)

	// Keyword search finds the content
	hits, err := index.QueryKeyword(ctx, "PLL output dividers", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestIngestFileSkipsUnchanged(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t)
	ctx := context.Background()

	path := writeDoc(t, t.TempDir(), "errata_A.txt", "Erratum 4: SPI clock glitch under PDC load.")

	first, err := pipeline.IngestFile(ctx, path, FileMeta{})
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	second, err := pipeline.IngestFile(ctx, path, FileMeta{})
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.Checksum, second.Checksum)
}

func TestIngestFileDuplicateContentDifferentName(t *testing.T) {
	pipeline, store, _ := newTestPipeline(t)
	ctx := context.Background()
	dir := t.TempDir()

	body := "Shared body describing LSRAM block timing and depth modes."
	first := writeDoc(t, dir, "alpha_A.txt", body)
	second := writeDoc(t, dir, "beta_B.txt", body)

	checksum, _, err := fileChecksum(first)
	require.NoError(t, err)

	// A prior attempt left a non-ready manifest row for the same bytes.
	require.NoError(t, store.UpsertDocument(ctx, &storage.Document{
		DocID:    "alpha",
		Revision: "A",
		Title:    "alpha",
		Checksum: checksum,
		Status:   storage.StatusFailed,
	}))

	// Identical bytes under a different name skip cleanly instead of
	// tripping the unique checksum constraint.
	result, err := pipeline.IngestFile(ctx, second, FileMeta{})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "alpha", result.DocID)
	assert.Equal(t, "A", result.Revision)

	// The original identity can still retry and complete.
	retried, err := pipeline.IngestFile(ctx, first, FileMeta{})
	require.NoError(t, err)
	assert.False(t, retried.Skipped)

	doc, err := store.GetDocument(ctx, "alpha", "A")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusReady, doc.Status)
}

func TestIngestFileReplacesChangedRevision(t *testing.T) {
	pipeline, store, index := newTestPipeline(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeDoc(t, dir, "ds_A.txt", "Original content about oscillators and dividers.")
	first, err := pipeline.IngestFile(ctx, path, FileMeta{DocID: "ds", Revision: "A"})
	require.NoError(t, err)

	// Same revision, changed content: chunks are replaced, not duplicated
	require.NoError(t, os.WriteFile(path, []byte("Rewritten content about transceiver lanes and protocols."), 0o644))
	second, err := pipeline.IngestFile(ctx, path, FileMeta{DocID: "ds", Revision: "A"})
	require.NoError(t, err)
	assert.False(t, second.Skipped)
	assert.NotEqual(t, first.Checksum, second.Checksum)

	ids, err := store.ListChunkIDsByDocument(ctx, "ds", "A")
	require.NoError(t, err)
	assert.Len(t, ids, second.Chunks)

	count, err := index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(second.Chunks), count)
}

func TestIngestFileFailureRecordedOnManifest(t *testing.T) {
	pipeline, store, _ := newTestPipeline(t)
	ctx := context.Background()

	path := writeDoc(t, t.TempDir(), "broken.pdf", "this is not a real pdf")

	_, err := pipeline.IngestFile(ctx, path, FileMeta{DocID: "broken", Revision: "1"})
	require.Error(t, err)

	doc, err := store.GetDocument(ctx, "broken", "1")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusFailed, doc.Status)
	assert.NotEmpty(t, doc.Notes)
}

func TestIngestDir(t *testing.T) {
	pipeline, store, _ := newTestPipeline(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeDoc(t, dir, "doc_one_A.txt", "Fabric logic elements contain a four input lookup table.")
	writeDoc(t, dir, "doc_two_B.md", "The DDR controller supports DDR4 up to 1600 MT/s.")
	writeDoc(t, dir, "broken.pdf", "not really a pdf")
	writeDoc(t, dir, "ignored.csv", "a,b,c")

	stats, err := pipeline.IngestDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Ingested)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Skipped)
	assert.NotEmpty(t, stats.RunID)
	assert.Len(t, stats.ErrorMsgs, 1)

	// Second run skips everything that succeeded
	stats, err = pipeline.IngestDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Ingested)
	assert.Equal(t, 2, stats.Skipped)

	docs, err := store.ListDocumentsByStatus(ctx, storage.StatusReady)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestInferMeta(t *testing.T) {
	meta := inferMeta("/incoming/PolarFire_FPGA_Datasheet_E.pdf", FileMeta{})
	assert.Equal(t, "polarfire-fpga-datasheet", meta.DocID)
	assert.Equal(t, "E", meta.Revision)
	assert.Equal(t, "Datasheet", meta.DocType)
	assert.Equal(t, "PolarFire FPGA Datasheet", meta.Title)

	meta = inferMeta("/incoming/IGLOO2_UG_rev3.pdf", FileMeta{})
	assert.Equal(t, "3", meta.Revision)
	assert.Equal(t, "User Guide", meta.DocType)

	meta = inferMeta("/incoming/notes_v1.2.txt", FileMeta{})
	assert.Equal(t, "1.2", meta.Revision)

	meta = inferMeta("/incoming/random.txt", FileMeta{})
	assert.Equal(t, "1", meta.Revision)
	assert.Equal(t, "Reference", meta.DocType)

	// Caller metadata wins over inference
	meta = inferMeta("/incoming/whatever.pdf", FileMeta{DocID: "my-doc", Revision: "7", DocType: "Errata"})
	assert.Equal(t, "my-doc", meta.DocID)
	assert.Equal(t, "7", meta.Revision)
	assert.Equal(t, "Errata", meta.DocType)
}
