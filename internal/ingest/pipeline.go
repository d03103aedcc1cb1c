package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonzo97/mchp-fpga-mcp/internal/embedder"
	"github.com/jonzo97/mchp-fpga-mcp/internal/extract"
	"github.com/jonzo97/mchp-fpga-mcp/internal/keyword"
	"github.com/jonzo97/mchp-fpga-mcp/internal/storage"
	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

// Pipeline coordinates the ingest stages:
// extract -> clean -> chunk -> embed -> index.
type Pipeline struct {
	store     storage.Store
	index     *keyword.Index
	embedder  embedder.Embedder
	extractor *extract.Extractor
	logger    *zap.Logger
	workers   int
}

// Config contains configuration for the pipeline
type Config struct {
	Workers int // Concurrent documents per directory run (default: NumCPU)
}

// FileMeta carries caller-supplied document metadata. Zero values are
// inferred from the file name.
type FileMeta struct {
	DocID    string
	Revision string
	Title    string
	DocType  string
	URL      string
}

// Result summarizes one document ingest
type Result struct {
	DocID    string
	Revision string
	Checksum string
	Pages    int
	Chunks   int
	Skipped  bool
	Duration time.Duration
}

// Statistics summarizes a directory ingest run
type Statistics struct {
	RunID     string
	Ingested  int
	Skipped   int
	Failed    int
	Chunks    int
	Duration  time.Duration
	ErrorMsgs []string
}

// New creates an ingest pipeline
func New(store storage.Store, index *keyword.Index, emb embedder.Embedder, logger *zap.Logger, cfg *Config) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := runtime.NumCPU()
	if cfg != nil && cfg.Workers > 0 {
		workers = cfg.Workers
	}
	return &Pipeline{
		store:     store,
		index:     index,
		embedder:  emb,
		extractor: extract.NewExtractor(),
		logger:    logger,
		workers:   workers,
	}
}

// IngestFile ingests a single document file. A file whose checksum
// already has a ready manifest row is skipped. Failures are recorded
// on the manifest with status failed before the error is returned.
func (p *Pipeline) IngestFile(ctx context.Context, path string, meta FileMeta) (*Result, error) {
	start := time.Now()

	checksum, size, err := fileChecksum(path)
	if err != nil {
		return nil, fmt.Errorf("checksum %s: %w", path, err)
	}

	existing, err := p.store.GetDocumentByChecksum(ctx, checksum)
	if err != nil && err != storage.ErrNotFound {
		return nil, err
	}
	meta = inferMeta(path, meta)

	if existing != nil {
		if existing.Status == storage.StatusReady {
			p.logger.Info("document unchanged, skipping",
				zap.String("path", path),
				zap.String("doc_id", existing.DocID))
			return &Result{
				DocID:    existing.DocID,
				Revision: existing.Revision,
				Checksum: checksum,
				Chunks:   existing.ChunkCount,
				Skipped:  true,
				Duration: time.Since(start),
			}, nil
		}
		// Same bytes already staged under another identity. The checksum
		// column is unique, so upserting a second manifest row would
		// fail; skip and leave the original row to its own retry.
		if existing.DocID != meta.DocID || existing.Revision != meta.Revision {
			p.logger.Warn("duplicate content under a different name, skipping",
				zap.String("path", path),
				zap.String("existing_doc_id", existing.DocID),
				zap.String("existing_revision", existing.Revision))
			return &Result{
				DocID:    existing.DocID,
				Revision: existing.Revision,
				Checksum: checksum,
				Skipped:  true,
				Duration: time.Since(start),
			}, nil
		}
	}

	doc := &storage.Document{
		DocID:      meta.DocID,
		Revision:   meta.Revision,
		Title:      meta.Title,
		DocType:    meta.DocType,
		SourcePath: path,
		SourceURL:  meta.URL,
		Checksum:   checksum,
		SizeBytes:  size,
		Status:     storage.StatusStaged,
	}
	if err := p.store.UpsertDocument(ctx, doc); err != nil {
		return nil, err
	}

	result, err := p.process(ctx, path, doc)
	if err != nil {
		if statusErr := p.store.UpdateDocumentStatus(ctx, checksum, storage.StatusFailed, err.Error()); statusErr != nil {
			p.logger.Warn("failed to record ingest failure", zap.Error(statusErr))
		}
		return nil, fmt.Errorf("ingest %s: %w", path, err)
	}

	result.Duration = time.Since(start)
	p.logger.Info("document ingested",
		zap.String("doc_id", doc.DocID),
		zap.String("revision", doc.Revision),
		zap.Int("pages", result.Pages),
		zap.Int("chunks", result.Chunks),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, path string, doc *storage.Document) (*Result, error) {
	if err := p.store.UpdateDocumentStatus(ctx, doc.Checksum, storage.StatusExtracting, ""); err != nil {
		return nil, err
	}

	pages, err := p.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	pages = CleanPages(pages)
	if len(pages) == 0 {
		return nil, fmt.Errorf("no content after cleaning")
	}

	// Re-ingest of a changed file under the same revision replaces
	// its chunks wholesale.
	staleIDs, err := p.store.ListChunkIDsByDocument(ctx, doc.DocID, doc.Revision)
	if err != nil {
		return nil, err
	}
	if err := p.index.DeleteBatch(ctx, staleIDs); err != nil {
		return nil, err
	}
	if _, err := p.store.DeleteChunksByDocument(ctx, doc.DocID, doc.Revision); err != nil {
		return nil, err
	}

	chunks := NewChunker(doc.DocID, doc.Revision).ChunkPages(pages)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced")
	}

	if err := p.store.UpdateDocumentStatus(ctx, doc.Checksum, storage.StatusIndexing, ""); err != nil {
		return nil, err
	}

	if err := p.store.UpsertChunks(ctx, chunks); err != nil {
		return nil, err
	}
	if err := p.index.IndexBatch(ctx, chunks); err != nil {
		return nil, err
	}
	if err := p.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	doc.PageCount = lastPage(pages)
	doc.ChunkCount = len(chunks)
	doc.Status = storage.StatusReady
	if err := p.store.UpsertDocument(ctx, doc); err != nil {
		return nil, err
	}

	return &Result{
		DocID:    doc.DocID,
		Revision: doc.Revision,
		Checksum: doc.Checksum,
		Pages:    len(pages),
		Chunks:   len(chunks),
	}, nil
}

func (p *Pipeline) embedChunks(ctx context.Context, chunks []*types.Chunk) error {
	model := p.embedder.Model()
	for start := 0; start < len(chunks); start += embedder.DefaultBatchSize {
		end := start + embedder.DefaultBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		for i, vector := range vectors {
			if err := p.store.UpsertEmbedding(ctx, batch[i].ChunkID, vector, model); err != nil {
				return err
			}
		}
	}
	return nil
}

// IngestDir ingests every supported file under dir concurrently.
// Individual document failures are collected, not fatal.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (*Statistics, error) {
	start := time.Now()
	runID := uuid.NewString()

	files, err := discoverFiles(dir)
	if err != nil {
		return nil, err
	}

	p.logger.Info("ingest run started",
		zap.String("run_id", runID),
		zap.String("dir", dir),
		zap.Int("files", len(files)),
		zap.Int("workers", p.workers))

	var ingested, skipped, failed, chunks atomic.Int32
	errCh := make(chan string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, path := range files {
		g.Go(func() error {
			result, err := p.IngestFile(gctx, path, FileMeta{})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				errCh <- fmt.Sprintf("%s: %v", path, err)
				p.logger.Warn("document ingest failed", zap.String("path", path), zap.Error(err))
				return nil
			}
			if result.Skipped {
				skipped.Add(1)
			} else {
				ingested.Add(1)
				chunks.Add(int32(result.Chunks))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(errCh)

	stats := &Statistics{
		RunID:    runID,
		Ingested: int(ingested.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
		Chunks:   int(chunks.Load()),
		Duration: time.Since(start),
	}
	for msg := range errCh {
		stats.ErrorMsgs = append(stats.ErrorMsgs, msg)
	}

	p.logger.Info("ingest run finished",
		zap.String("run_id", runID),
		zap.Int("ingested", stats.Ingested),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}

func discoverFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf", ".txt", ".md":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

func fileChecksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// Vendor file names like "PolarFire_FPGA_Datasheet_DS00003831E.pdf"
// carry the revision as a trailing letter on the document number.
var revisionSuffixPattern = regexp.MustCompile(`_([A-Z])$|_rev([A-Za-z0-9]+)$|_v(\d+(?:\.\d+)*)$`)

func inferMeta(path string, meta FileMeta) FileMeta {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if meta.Revision == "" {
		if m := revisionSuffixPattern.FindStringSubmatch(base); m != nil {
			for _, g := range m[1:] {
				if g != "" {
					meta.Revision = g
					break
				}
			}
			base = base[:len(base)-len(m[0])]
		} else {
			meta.Revision = "1"
		}
	}
	if meta.DocID == "" {
		meta.DocID = strings.ToLower(strings.ReplaceAll(base, "_", "-"))
	}
	if meta.Title == "" {
		meta.Title = strings.ReplaceAll(base, "_", " ")
	}
	if meta.DocType == "" {
		meta.DocType = inferDocType(base)
	}
	return meta
}

func inferDocType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "datasheet"), strings.Contains(lower, "_ds"):
		return "Datasheet"
	case strings.Contains(lower, "user_guide"), strings.Contains(lower, "user guide"), strings.Contains(lower, "_ug"):
		return "User Guide"
	case strings.Contains(lower, "app_note"), strings.Contains(lower, "application_note"), strings.Contains(lower, "_an"):
		return "Application Note"
	case strings.Contains(lower, "errata"):
		return "Errata"
	default:
		return "Reference"
	}
}

func lastPage(pages []extract.Page) int {
	if len(pages) == 0 {
		return 0
	}
	return pages[len(pages)-1].Number
}
