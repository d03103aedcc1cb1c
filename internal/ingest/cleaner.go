package ingest

import (
	"regexp"
	"strings"

	"github.com/jonzo97/mchp-fpga-mcp/internal/extract"
)

// Header/footer detection looks at the first and last few lines of
// each page; a line repeated on most pages is boilerplate.
const (
	edgeLines         = 3
	repeatThreshold   = 0.5
	minPagesForRepeat = 3
)

var pageNumberPattern = regexp.MustCompile(`^\s*(page\s+)?\d+(\s+of\s+\d+)?\s*$`)

// CleanPages strips repeated headers and footers, bare page numbers,
// and excess whitespace from extracted pages. Pages that end up empty
// are dropped.
func CleanPages(pages []extract.Page) []extract.Page {
	repeated := findRepeatedLines(pages)

	cleaned := make([]extract.Page, 0, len(pages))
	for _, page := range pages {
		lines := strings.Split(page.Text, "\n")
		kept := make([]string, 0, len(lines))
		for i, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				kept = append(kept, "")
				continue
			}
			if pageNumberPattern.MatchString(strings.ToLower(trimmed)) {
				continue
			}
			// Only strip repeated lines near the page edges; the same
			// sentence legitimately recurring mid-page stays.
			if nearEdge(i, len(lines)) && repeated[normalizeLine(trimmed)] {
				continue
			}
			kept = append(kept, trimmed)
		}

		text := collapseBlankLines(kept)
		if text == "" {
			continue
		}
		cleaned = append(cleaned, extract.Page{Number: page.Number, Text: text})
	}
	return cleaned
}

// findRepeatedLines returns the set of edge lines that appear on more
// than half of the pages.
func findRepeatedLines(pages []extract.Page) map[string]bool {
	if len(pages) < minPagesForRepeat {
		return nil
	}

	counts := make(map[string]int)
	for _, page := range pages {
		lines := strings.Split(page.Text, "\n")
		seen := make(map[string]bool)
		for i, line := range lines {
			if !nearEdge(i, len(lines)) {
				continue
			}
			key := normalizeLine(strings.TrimSpace(line))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
		}
	}

	threshold := int(float64(len(pages)) * repeatThreshold)
	if threshold < minPagesForRepeat {
		threshold = minPagesForRepeat
	}

	repeated := make(map[string]bool)
	for key, count := range counts {
		if count >= threshold {
			repeated[key] = true
		}
	}
	return repeated
}

func nearEdge(index, total int) bool {
	return index < edgeLines || index >= total-edgeLines
}

// normalizeLine folds digits so "DS00003831E Page 12" and
// "DS00003831E Page 13" count as the same header line.
func normalizeLine(line string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(line) {
		if r >= '0' && r <= '9' {
			b.WriteRune('#')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseBlankLines(lines []string) string {
	var b strings.Builder
	blank := true
	for _, line := range lines {
		if line == "" {
			if !blank {
				b.WriteString("\n\n")
			}
			blank = true
			continue
		}
		if !blank {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		blank = false
	}
	return strings.TrimSpace(b.String())
}
