package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testChunk(docID, revision string, page, seq int, text string) *types.Chunk {
	return &types.Chunk{
		ChunkID:     types.NewChunkID(docID, revision, page, seq),
		DocumentID:  docID,
		Revision:    revision,
		SectionPath: []string{"4 Clocking", "4.2 PLL Configuration"},
		Page:        page,
		ContentType: types.ContentText,
		Text:        text,
	}
}

func TestDocumentLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &Document{
		DocID:      "polarfire-fpga-datasheet",
		Revision:   "E",
		Title:      "PolarFire FPGA Datasheet",
		DocType:    "Datasheet",
		SourcePath: "/incoming/polarfire_ds.pdf",
		Checksum:   "abc123",
		SizeBytes:  1024,
		PageCount:  120,
	}

	require.NoError(t, store.UpsertDocument(ctx, doc))
	assert.NotZero(t, doc.ID)

	got, err := store.GetDocument(ctx, "polarfire-fpga-datasheet", "E")
	require.NoError(t, err)
	assert.Equal(t, "PolarFire FPGA Datasheet", got.Title)
	assert.Equal(t, StatusStaged, got.Status)

	// Status advances through the ingest lifecycle
	require.NoError(t, store.UpdateDocumentStatus(ctx, "abc123", StatusExtracting, ""))
	require.NoError(t, store.UpdateDocumentStatus(ctx, "abc123", StatusIndexing, ""))
	require.NoError(t, store.UpdateDocumentStatus(ctx, "abc123", StatusReady, ""))

	got, err = store.GetDocumentByChecksum(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, got.Status)

	ready, err := store.ListDocumentsByStatus(ctx, StatusReady)
	require.NoError(t, err)
	assert.Len(t, ready, 1)

	staged, err := store.ListDocumentsByStatus(ctx, StatusStaged)
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestDocumentUpsertSameRevision(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &Document{DocID: "igloo2-ug", Revision: "3", Title: "old", Checksum: "c1"}
	require.NoError(t, store.UpsertDocument(ctx, doc))
	firstID := doc.ID

	doc2 := &Document{DocID: "igloo2-ug", Revision: "3", Title: "IGLOO2 User Guide", Checksum: "c2", ChunkCount: 42}
	require.NoError(t, store.UpsertDocument(ctx, doc2))

	assert.Equal(t, firstID, doc2.ID)

	got, err := store.GetDocument(ctx, "igloo2-ug", "3")
	require.NoError(t, err)
	assert.Equal(t, "IGLOO2 User Guide", got.Title)
	assert.Equal(t, 42, got.ChunkCount)

	all, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDocumentNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetDocument(ctx, "missing", "A")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetDocumentByChecksum(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.UpdateDocumentStatus(ctx, "deadbeef", StatusFailed, "missing file")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChunkRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c1 := testChunk("polarfire-ds", "E", 12, 0, "The PLL supports fractional-N synthesis.")
	c1.BBox = &types.BBox{X0: 72, Y0: 100, X1: 540, Y1: 180}
	c2 := testChunk("polarfire-ds", "E", 12, 1, "Output dividers range from 1 to 255.")
	c2.ContentType = types.ContentTable
	c2.SectionPath = nil

	require.NoError(t, store.UpsertChunks(ctx, []*types.Chunk{c1, c2}))

	got, err := store.GetChunk(ctx, c1.ChunkID)
	require.NoError(t, err)
	assert.Equal(t, c1.Text, got.Text)
	assert.Equal(t, []string{"4 Clocking", "4.2 PLL Configuration"}, got.SectionPath)
	require.NotNil(t, got.BBox)
	assert.Equal(t, 540.0, got.BBox.X1)

	got2, err := store.GetChunk(ctx, c2.ChunkID)
	require.NoError(t, err)
	assert.Nil(t, got2.SectionPath)
	assert.Nil(t, got2.BBox)
	assert.Equal(t, types.ContentTable, got2.ContentType)
}

func TestGetChunksSkipsUnknownIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c := testChunk("polarfire-ds", "E", 3, 0, "some text")
	require.NoError(t, store.UpsertChunks(ctx, []*types.Chunk{c}))

	chunks, err := store.GetChunks(ctx, []string{c.ChunkID, "nope@A#1:0000"})
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
	assert.Contains(t, chunks, c.ChunkID)
}

func TestGetChunkNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetChunk(context.Background(), "missing@A#1:0000")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, types.ErrChunkNotFound)
}

func TestUpsertChunksRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	bad := &types.Chunk{ChunkID: "x", DocumentID: "d", Revision: "A", Page: 1, ContentType: "hologram", Text: "t"}
	err := store.UpsertChunks(context.Background(), []*types.Chunk{bad})
	assert.Error(t, err)
}

func TestDeleteChunksByDocumentCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keep := testChunk("igloo2-ug", "3", 1, 0, "kept")
	c1 := testChunk("polarfire-ds", "E", 1, 0, "first")
	c2 := testChunk("polarfire-ds", "E", 1, 1, "second")
	require.NoError(t, store.UpsertChunks(ctx, []*types.Chunk{keep, c1, c2}))

	require.NoError(t, store.UpsertEmbedding(ctx, c1.ChunkID, []float32{1, 0}, "test-model"))
	require.NoError(t, store.UpsertEmbedding(ctx, keep.ChunkID, []float32{0, 1}, "test-model"))

	deleted, err := store.DeleteChunksByDocument(ctx, "polarfire-ds", "E")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	ids, err := store.ListChunkIDsByDocument(ctx, "polarfire-ds", "E")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Embedding for the deleted chunk is gone, the other survives
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.Embeddings)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, &Document{DocID: "d1", Revision: "A", Checksum: "c1", Status: StatusReady}))
	require.NoError(t, store.UpsertDocument(ctx, &Document{DocID: "d2", Revision: "A", Checksum: "c2"}))

	c := testChunk("d1", "A", 1, 0, "text")
	require.NoError(t, store.UpsertChunks(ctx, []*types.Chunk{c}))
	require.NoError(t, store.UpsertEmbedding(ctx, c.ChunkID, []float32{0.5, 0.5}, "test-model"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 1, stats.Ready)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.Embeddings)
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.UpsertDocument(context.Background(), &Document{DocID: "d", Revision: "A", Checksum: "c"}))
	require.NoError(t, store.Close())

	// Reopening applies no migrations and keeps the data
	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.GetDocument(context.Background(), "d", "A")
	require.NoError(t, err)
	assert.Equal(t, "c", got.Checksum)
}
