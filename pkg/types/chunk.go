package types

import (
	"errors"
	"fmt"
	"strings"
)

// ContentType classifies what kind of document content a chunk carries.
type ContentType string

const (
	ContentText   ContentType = "text"
	ContentTable  ContentType = "table"
	ContentFigure ContentType = "figure"
)

// Valid reports whether the content type is one of the known values.
func (ct ContentType) Valid() bool {
	switch ct {
	case ContentText, ContentTable, ContentFigure:
		return true
	default:
		return false
	}
}

// BBox is an optional spatial region on the source page, used for
// provenance display only. Coordinates are in PDF points.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Chunk is the atomic unit of retrievable content: a paragraph, table, or
// figure caption extracted from one page of a vendor document.
type Chunk struct {
	// ChunkID is unique and stable across the union of all indexes. The
	// same id in the keyword and vector indexes refers to this chunk.
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	Revision   string `json:"revision"`

	// SectionPath is the ordered sequence of heading strings leading to
	// this chunk, outermost first.
	SectionPath []string    `json:"section_path,omitempty"`
	Page        int         `json:"page"`
	ContentType ContentType `json:"content_type"`

	// Text is used for keyword search and cross-encoder reranking.
	Text string `json:"text"`

	BBox *BBox `json:"bbox,omitempty"`
}

// NewChunkID builds the deterministic chunk id for a document revision:
// "docID@revision#page:seq". Re-ingesting the same revision reproduces the
// same ids; a new revision produces a disjoint id set.
func NewChunkID(docID, revision string, page, seq int) string {
	return fmt.Sprintf("%s@%s#%d:%04d", docID, revision, page, seq)
}

// Section returns the innermost heading, or "" for a chunk outside any
// recognized section.
func (c *Chunk) Section() string {
	if len(c.SectionPath) == 0 {
		return ""
	}
	return c.SectionPath[len(c.SectionPath)-1]
}

// SectionString renders the full heading path for display.
func (c *Chunk) SectionString() string {
	return strings.Join(c.SectionPath, " > ")
}

// Validate checks the chunk before it is accepted for indexing.
func (c *Chunk) Validate() error {
	if c.ChunkID == "" {
		return errors.New("chunk id is required")
	}
	if c.DocumentID == "" {
		return errors.New("document id is required")
	}
	if c.Page < 1 {
		return errors.New("page must be >= 1")
	}
	if !c.ContentType.Valid() {
		return fmt.Errorf("invalid content type %q", c.ContentType)
	}
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("chunk text cannot be empty")
	}
	return nil
}
