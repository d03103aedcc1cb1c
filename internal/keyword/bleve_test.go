package keyword

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

func chunkWith(id, text string) *types.Chunk {
	return &types.Chunk{
		ChunkID:     id,
		DocumentID:  "PolarFire_DS",
		Revision:    "B",
		Page:        1,
		ContentType: types.ContentText,
		Text:        text,
	}
}

func TestIndexAndQuery(t *testing.T) {
	idx, err := OpenMemory()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	ctx := context.Background()
	require.NoError(t, idx.IndexBatch(ctx, []*types.Chunk{
		chunkWith("c1", "The DDR4 memory controller supports initialization training sequences."),
		chunkWith("c2", "PCIe Gen2 transceiver lanes are configured through the PF_PCIE core."),
		chunkWith("c3", "The CCC PLL output frequency is set by the feedback multiplier."),
	}))

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	hits, err := idx.QueryKeyword(ctx, "DDR4 memory controller", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestQueryRespectsLimit(t *testing.T) {
	idx, err := OpenMemory()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, idx.IndexChunk(ctx, chunkWith(
			types.NewChunkID("PolarFire_DS", "B", 1, i),
			"clock domain crossing constraint guidance",
		)))
	}

	hits, err := idx.QueryKeyword(ctx, "clock domain crossing", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestDelete(t *testing.T) {
	idx, err := OpenMemory()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	ctx := context.Background()
	require.NoError(t, idx.IndexChunk(ctx, chunkWith("c1", "IO bank voltage settings")))
	require.NoError(t, idx.Delete(ctx, "c1"))

	hits, err := idx.QueryKeyword(ctx, "voltage", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := t.TempDir() + "/bleve"

	idx, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, idx.IndexChunk(ctx, chunkWith("c1", "transceiver reference clock")))
	require.NoError(t, idx.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	count, err := reopened.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
