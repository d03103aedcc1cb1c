package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jonzo97/mchp-fpga-mcp/internal/hybrid"
	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// DocumentStatus is the manifest lifecycle of an ingested document.
type DocumentStatus string

const (
	StatusStaged     DocumentStatus = "staged"
	StatusExtracting DocumentStatus = "extracting"
	StatusIndexing   DocumentStatus = "indexing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is a manifest row: one ingested revision of a vendor document.
type Document struct {
	ID         int64
	DocID      string
	Revision   string
	Title      string
	DocType    string // e.g. "Datasheet", "User Guide", "Application Note"
	SourcePath string
	SourceURL  string
	Checksum   string // sha256 hex of the source file
	SizeBytes  int64
	PageCount  int
	ChunkCount int
	Status     DocumentStatus
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store is the persistence interface for documents, chunks, and
// embeddings. It also satisfies hybrid.VectorIndex (QueryVector) and
// hybrid.ChunkStore (GetChunks).
type Store interface {
	// Document / manifest operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, docID, revision string) (*Document, error)
	GetDocumentByChecksum(ctx context.Context, checksum string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	ListDocumentsByStatus(ctx context.Context, status DocumentStatus) ([]*Document, error)
	UpdateDocumentStatus(ctx context.Context, checksum string, status DocumentStatus, notes string) error

	// Chunk operations
	UpsertChunks(ctx context.Context, chunks []*types.Chunk) error
	GetChunk(ctx context.Context, chunkID string) (*types.Chunk, error)
	GetChunks(ctx context.Context, ids []string) (map[string]*types.Chunk, error)
	ListChunkIDsByDocument(ctx context.Context, docID, revision string) ([]string, error)
	DeleteChunksByDocument(ctx context.Context, docID, revision string) (int, error)

	// Embedding operations
	UpsertEmbedding(ctx context.Context, chunkID string, vector []float32, model string) error
	QueryVector(ctx context.Context, embedding []float32, limit int) ([]hybrid.ScoredID, error)

	// Stats returns corpus-level counts for status reporting.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// Stats summarizes the indexed corpus.
type Stats struct {
	Documents  int
	Ready      int
	Chunks     int
	Embeddings int
}
