package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor()

	pages, err := e.ExtractBytes([]byte("  The PLL supports spread spectrum.\n"), ".txt")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "The PLL supports spread spectrum.", pages[0].Text)
}

func TestExtractMarkdown(t *testing.T) {
	e := NewExtractor()

	pages, err := e.ExtractBytes([]byte("# Clocking\n\nGlobal clock networks."), ".md")
	require.NoError(t, err)
	require.Len(t, pages, 1)
}

func TestExtractInvalidUTF8(t *testing.T) {
	e := NewExtractor()

	pages, err := e.ExtractBytes([]byte{'o', 'k', 0xff, 0xfe}, ".txt")
	require.NoError(t, err)
	assert.Contains(t, pages[0].Text, "ok")
	assert.Contains(t, pages[0].Text, "�")
}

func TestExtractEmptyDocument(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractBytes([]byte("   \n  "), ".txt")
	assert.Error(t, err)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractBytes([]byte("binary"), ".docx")
	assert.Error(t, err)
}

func TestExtractMalformedPDF(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractBytes([]byte("not a pdf at all"), ".pdf")
	assert.Error(t, err)
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "errata.txt")
	require.NoError(t, os.WriteFile(path, []byte("DDR controller erratum 17"), 0o644))

	e := NewExtractor()
	pages, err := e.Extract(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "DDR controller erratum 17", pages[0].Text)

	_, err = e.Extract(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
