package ingest

import (
	"regexp"
	"strings"

	"github.com/jonzo97/mchp-fpga-mcp/internal/extract"
	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

const (
	// MaxTokensPerChunk is the target maximum token count per chunk
	MaxTokensPerChunk = 1500

	// OverlapTokens is carried from the tail of one chunk into the
	// next so sentences spanning a boundary stay searchable.
	OverlapTokens = 150

	// TokensPerChar is the heuristic for estimating tokens (chars/4)
	TokensPerChar = 4
)

// Numbered section headings like "4.2 PLL Configuration" or
// "3 Clock Resources".
var headingPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+(\S.*)$`)

// Chunker splits cleaned pages into retrieval chunks, tracking the
// section heading hierarchy as it goes.
type Chunker struct {
	docID    string
	revision string

	sections []section
	seq      int
	chunks   []*types.Chunk
}

type section struct {
	depth int
	title string
}

// NewChunker creates a chunker for one document revision
func NewChunker(docID, revision string) *Chunker {
	return &Chunker{docID: docID, revision: revision}
}

// ChunkPages converts cleaned pages into chunks with deterministic ids
func (c *Chunker) ChunkPages(pages []extract.Page) []*types.Chunk {
	c.chunks = make([]*types.Chunk, 0, len(pages)*2)
	for _, page := range pages {
		c.seq = 0
		c.chunkPage(page)
	}
	return c.chunks
}

func (c *Chunker) chunkPage(page extract.Page) {
	blocks := strings.Split(page.Text, "\n\n")

	var buf []string
	var bufTokens int

	flush := func() {
		if bufTokens == 0 {
			return
		}
		text := strings.Join(buf, "\n\n")
		c.emit(page.Number, text, classifyBlock(text))

		// Keep the tail of the flushed text as overlap for the next
		// chunk on the same page.
		tail := overlapTail(text, OverlapTokens)
		buf = buf[:0]
		bufTokens = 0
		if tail != "" {
			buf = append(buf, tail)
			bufTokens = EstimateTokens(tail)
		}
	}

	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		if depth, title, ok := matchHeading(block); ok {
			// Emit buffered text under the section it belongs to
			// before the stack changes.
			flush()
			buf = buf[:0]
			bufTokens = 0
			c.pushSection(depth, title)
			continue
		}

		blockTokens := EstimateTokens(block)

		// Tables get their own chunk so the content type is accurate
		if isTableBlock(block) {
			flush()
			buf = buf[:0]
			bufTokens = 0
			c.emit(page.Number, block, types.ContentTable)
			continue
		}

		if bufTokens+blockTokens > MaxTokensPerChunk && bufTokens > 0 {
			flush()
		}

		if blockTokens > MaxTokensPerChunk {
			// Oversized single block: split on sentence-ish boundaries
			for _, part := range splitOversized(block) {
				c.emit(page.Number, part, types.ContentText)
			}
			buf = buf[:0]
			bufTokens = 0
			continue
		}

		buf = append(buf, block)
		bufTokens += blockTokens
	}
	flush()
}

// matchHeading reports whether block is a numbered heading and returns
// its depth and rendered title. It does not touch the section stack.
func matchHeading(block string) (int, string, bool) {
	if strings.Contains(block, "\n") {
		return 0, "", false
	}
	m := headingPattern.FindStringSubmatch(block)
	if m == nil || len(block) > 120 {
		return 0, "", false
	}
	depth := strings.Count(m[1], ".") + 1
	title := m[1] + " " + strings.TrimSpace(m[2])
	return depth, title, true
}

// pushSection pops deeper or same-depth sections, then pushes the new one.
func (c *Chunker) pushSection(depth int, title string) {
	for len(c.sections) > 0 && c.sections[len(c.sections)-1].depth >= depth {
		c.sections = c.sections[:len(c.sections)-1]
	}
	c.sections = append(c.sections, section{depth: depth, title: title})
}

func (c *Chunker) emit(page int, text string, contentType types.ContentType) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	path := make([]string, len(c.sections))
	for i, s := range c.sections {
		path[i] = s.title
	}

	c.chunks = append(c.chunks, &types.Chunk{
		ChunkID:     types.NewChunkID(c.docID, c.revision, page, c.seq),
		DocumentID:  c.docID,
		Revision:    c.revision,
		SectionPath: path,
		Page:        page,
		ContentType: contentType,
		Text:        text,
	})
	c.seq++
}

// EstimateTokens approximates the token count of text
func EstimateTokens(text string) int {
	return len(text) / TokensPerChar
}

func classifyBlock(text string) types.ContentType {
	if isTableBlock(text) {
		return types.ContentTable
	}
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "figure ") || strings.HasPrefix(lower, "fig. ") {
		return types.ContentFigure
	}
	return types.ContentText
}

// isTableBlock treats a multi-line block as a table when most lines
// are column-aligned (pipes or runs of spaces between cells).
func isTableBlock(text string) bool {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return false
	}
	tabular := 0
	for _, line := range lines {
		if strings.Count(line, "|") >= 2 || strings.Contains(line, "   ") {
			tabular++
		}
	}
	return tabular*2 > len(lines)
}

// overlapTail returns roughly the last maxTokens worth of text,
// snapped to a word boundary.
func overlapTail(text string, maxTokens int) string {
	maxChars := maxTokens * TokensPerChar
	if len(text) <= maxChars {
		return ""
	}
	tail := text[len(text)-maxChars:]
	if idx := strings.IndexAny(tail, " \n"); idx >= 0 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}

// splitOversized breaks a block into pieces no larger than
// MaxTokensPerChunk, preferring sentence boundaries.
func splitOversized(block string) []string {
	maxChars := MaxTokensPerChunk * TokensPerChar
	var parts []string

	for len(block) > maxChars {
		cut := maxChars
		if idx := strings.LastIndex(block[:maxChars], ". "); idx > maxChars/2 {
			cut = idx + 1
		} else if idx := strings.LastIndexAny(block[:maxChars], " \n"); idx > 0 {
			cut = idx
		}
		parts = append(parts, strings.TrimSpace(block[:cut]))
		block = strings.TrimSpace(block[cut:])
	}
	if block != "" {
		parts = append(parts, block)
	}
	return parts
}
