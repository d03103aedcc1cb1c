package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies
// any pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Document operations

// UpsertDocument inserts a manifest row or updates the existing row for
// the same (doc_id, revision) pair. The row id and timestamps are
// written back into doc.
func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *Document) error {
	if doc.Status == "" {
		doc.Status = StatusStaged
	}

	query := `
		INSERT INTO documents (doc_id, revision, title, doc_type, source_path, source_url,
			checksum, size_bytes, page_count, chunk_count, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id, revision) DO UPDATE SET
			title = excluded.title,
			doc_type = excluded.doc_type,
			source_path = excluded.source_path,
			source_url = excluded.source_url,
			checksum = excluded.checksum,
			size_bytes = excluded.size_bytes,
			page_count = excluded.page_count,
			chunk_count = excluded.chunk_count,
			status = excluded.status,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.ExecContext(ctx, query,
		doc.DocID, doc.Revision, doc.Title, doc.DocType, doc.SourcePath, doc.SourceURL,
		doc.Checksum, doc.SizeBytes, doc.PageCount, doc.ChunkCount, string(doc.Status), doc.Notes)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s@%s: %w", doc.DocID, doc.Revision, err)
	}

	stored, err := s.GetDocument(ctx, doc.DocID, doc.Revision)
	if err != nil {
		return err
	}
	doc.ID = stored.ID
	doc.CreatedAt = stored.CreatedAt
	doc.UpdatedAt = stored.UpdatedAt
	return nil
}

const documentColumns = `id, doc_id, revision, title, doc_type, source_path, source_url,
	checksum, size_bytes, page_count, chunk_count, status, notes, created_at, updated_at`

// GetDocument retrieves one manifest row by document id and revision
func (s *SQLiteStore) GetDocument(ctx context.Context, docID, revision string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE doc_id = ? AND revision = ?",
		docID, revision)
	return scanDocument(row)
}

// GetDocumentByChecksum retrieves a manifest row by source checksum,
// used for ingest deduplication.
func (s *SQLiteStore) GetDocumentByChecksum(ctx context.Context, checksum string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE checksum = ?", checksum)
	return scanDocument(row)
}

// ListDocuments returns all manifest rows ordered by document id then revision
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY doc_id, revision")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanDocuments(rows)
}

// ListDocumentsByStatus returns manifest rows in the given lifecycle state
func (s *SQLiteStore) ListDocumentsByStatus(ctx context.Context, status DocumentStatus) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE status = ? ORDER BY doc_id, revision",
		string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents by status: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanDocuments(rows)
}

// UpdateDocumentStatus advances the manifest lifecycle for the document
// identified by checksum.
func (s *SQLiteStore) UpdateDocumentStatus(ctx context.Context, checksum string, status DocumentStatus, notes string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE checksum = ?",
		string(status), notes, checksum)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(row *sql.Row) (*Document, error) {
	var doc Document
	var status string
	err := row.Scan(&doc.ID, &doc.DocID, &doc.Revision, &doc.Title, &doc.DocType,
		&doc.SourcePath, &doc.SourceURL, &doc.Checksum, &doc.SizeBytes,
		&doc.PageCount, &doc.ChunkCount, &status, &doc.Notes,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	doc.Status = DocumentStatus(status)
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*Document, error) {
	var docs []*Document
	for rows.Next() {
		var doc Document
		var status string
		err := rows.Scan(&doc.ID, &doc.DocID, &doc.Revision, &doc.Title, &doc.DocType,
			&doc.SourcePath, &doc.SourceURL, &doc.Checksum, &doc.SizeBytes,
			&doc.PageCount, &doc.ChunkCount, &status, &doc.Notes,
			&doc.CreatedAt, &doc.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Status = DocumentStatus(status)
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Chunk operations

// UpsertChunks writes a batch of chunks in a single transaction.
// Re-ingesting a revision overwrites rows in place because chunk ids
// are deterministic.
func (s *SQLiteStore) UpsertChunks(ctx context.Context, chunks []*types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (chunk_id, doc_id, revision, section_path, page, content_type, text, bbox)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return fmt.Errorf("invalid chunk %s: %w", chunk.ChunkID, err)
		}

		sectionJSON, err := marshalSectionPath(chunk.SectionPath)
		if err != nil {
			return err
		}
		bboxJSON, err := marshalBBox(chunk.BBox)
		if err != nil {
			return err
		}

		_, err = stmt.ExecContext(ctx, chunk.ChunkID, chunk.DocumentID, chunk.Revision,
			sectionJSON, chunk.Page, string(chunk.ContentType), chunk.Text, bboxJSON)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunk.ChunkID, err)
		}
	}

	return tx.Commit()
}

// GetChunk retrieves a single chunk by id
func (s *SQLiteStore) GetChunk(ctx context.Context, chunkID string) (*types.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chunk_id, doc_id, revision, section_path, page, content_type, text, bbox
		FROM chunks WHERE chunk_id = ?
	`, chunkID)

	chunk, err := scanChunk(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chunk %s: %w", chunkID, errors.Join(ErrNotFound, types.ErrChunkNotFound))
	}
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// GetChunks retrieves chunks for the given ids. Unknown ids are simply
// absent from the returned map.
func (s *SQLiteStore) GetChunks(ctx context.Context, ids []string) (map[string]*types.Chunk, error) {
	result := make(map[string]*types.Chunk, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	// SQLite's default variable limit is 999; batch to stay under it
	const batchSize = 500
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		query := `
			SELECT chunk_id, doc_id, revision, section_path, page, content_type, text, bbox
			FROM chunks WHERE chunk_id IN (` + placeholders(len(batch)) + `)`
		args := make([]interface{}, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query chunks: %w", err)
		}

		for rows.Next() {
			chunk, err := scanChunk(rows.Scan)
			if err != nil {
				_ = rows.Close()
				return nil, err
			}
			result[chunk.ChunkID] = chunk
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, err
		}
		_ = rows.Close()
	}

	return result, nil
}

// ListChunkIDsByDocument returns all chunk ids for one document revision
func (s *SQLiteStore) ListChunkIDsByDocument(ctx context.Context, docID, revision string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT chunk_id FROM chunks WHERE doc_id = ? AND revision = ? ORDER BY chunk_id",
		docID, revision)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteChunksByDocument removes all chunks (and, via cascade, their
// embeddings) for one document revision. Returns the number of chunks
// deleted.
func (s *SQLiteStore) DeleteChunksByDocument(ctx context.Context, docID, revision string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE doc_id = ? AND revision = ?", docID, revision)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

type scanFunc func(dest ...interface{}) error

func scanChunk(scan scanFunc) (*types.Chunk, error) {
	var chunk types.Chunk
	var sectionJSON, bboxJSON sql.NullString
	var contentType string

	err := scan(&chunk.ChunkID, &chunk.DocumentID, &chunk.Revision,
		&sectionJSON, &chunk.Page, &contentType, &chunk.Text, &bboxJSON)
	if err != nil {
		return nil, err
	}
	chunk.ContentType = types.ContentType(contentType)

	if sectionJSON.Valid && sectionJSON.String != "" {
		if err := json.Unmarshal([]byte(sectionJSON.String), &chunk.SectionPath); err != nil {
			return nil, fmt.Errorf("failed to decode section path for %s: %w", chunk.ChunkID, err)
		}
	}
	if bboxJSON.Valid && bboxJSON.String != "" {
		var bbox types.BBox
		if err := json.Unmarshal([]byte(bboxJSON.String), &bbox); err != nil {
			return nil, fmt.Errorf("failed to decode bbox for %s: %w", chunk.ChunkID, err)
		}
		chunk.BBox = &bbox
	}

	return &chunk, nil
}

func marshalSectionPath(path []string) (sql.NullString, error) {
	if len(path) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(path)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode section path: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func marshalBBox(bbox *types.BBox) (sql.NullString, error) {
	if bbox == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(bbox)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode bbox: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	s := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			s = append(s, ',')
		}
		s = append(s, '?')
	}
	return string(s)
}

// Embedding operations

// UpsertEmbedding stores the embedding vector for a chunk
func (s *SQLiteStore) UpsertEmbedding(ctx context.Context, chunkID string, vector []float32, model string) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty vector for chunk %s", chunkID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO embeddings (chunk_id, vector, dimension, model)
		VALUES (?, ?, ?, ?)
	`, chunkID, serializeVector(vector), len(vector), model)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding for %s: %w", chunkID, err)
	}
	return nil
}

// Stats returns corpus-level counts
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM documents WHERE status = 'ready'),
			(SELECT COUNT(*) FROM chunks),
			(SELECT COUNT(*) FROM embeddings)
	`)
	if err := row.Scan(&stats.Documents, &stats.Ready, &stats.Chunks, &stats.Embeddings); err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	return stats, nil
}
