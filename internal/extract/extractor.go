// Package extract pulls per-page text out of vendor document files.
// Page numbers are preserved because chunk ids and search provenance
// both reference them.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Page is the text content of one source page.
type Page struct {
	Number int
	Text   string
}

// Extractor extracts per-page text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its pages. PDF files are
// split along real page boundaries; plain text formats (.txt, .md)
// come back as a single page 1.
func (e *Extractor) Extract(path string) ([]Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts pages from content based on the given
// extension. ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]Page, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".txt", ".md", ".rst", "":
		return extractPlain(content)
	default:
		return nil, fmt.Errorf("unsupported format %q", ext)
	}
}
