package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonzo97/mchp-fpga-mcp/internal/hybrid"
	"github.com/jonzo97/mchp-fpga-mcp/internal/storage"
	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

// Snippet limits per tool. Parameter and constraint lookups show more
// text because tables and TCL examples lose meaning when truncated.
const (
	searchSnippetLen     = 500
	parameterSnippetLen  = 600
	constraintSnippetLen = 700
)

func formatSearchResults(query string, results []types.RankedResult, resp *hybrid.Response, titles map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search Results for: '%s'\n\n", query)
	fmt.Fprintf(&b, "Found %d relevant sections:\n\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&b, "## Result %d: %s\n", i+1, resultTitle(&r, titles))
		writeResultMeta(&b, &r)
		fmt.Fprintf(&b, "**Relevance Score:** %.3f\n\n", r.EffectiveScore())
		writeSnippet(&b, &r, searchSnippetLen)
		b.WriteString("---\n\n")
	}

	writeQualityNotes(&b, resp)
	return b.String()
}

func formatDocInfo(stats *storage.Stats, docs []*storage.Document) string {
	var b strings.Builder
	b.WriteString("# FPGA Documentation Corpus\n\n")
	b.WriteString("## Corpus Statistics\n")
	fmt.Fprintf(&b, "- **Documents:** %d (%d ready)\n", stats.Documents, stats.Ready)
	fmt.Fprintf(&b, "- **Indexed Chunks:** %d\n", stats.Chunks)
	fmt.Fprintf(&b, "- **Embeddings:** %d\n\n", stats.Embeddings)

	if len(docs) == 0 {
		b.WriteString("No documents have been ingested yet.\n")
		return b.String()
	}

	sorted := make([]*storage.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].DocType != sorted[j].DocType {
			return sorted[i].DocType < sorted[j].DocType
		}
		return sorted[i].DocID < sorted[j].DocID
	})

	b.WriteString("## Available Documents\n\n")
	currentType := ""
	for _, doc := range sorted {
		if doc.DocType != currentType {
			currentType = doc.DocType
			fmt.Fprintf(&b, "### %s\n", currentType)
		}
		fmt.Fprintf(&b, "- **%s** (rev %s, %d pages, %d chunks) [%s]\n",
			doc.Title, doc.Revision, doc.PageCount, doc.ChunkCount, doc.Status)
	}

	b.WriteString("\n## Searchable Topics\n")
	b.WriteString("- Clock conditioning circuits (PLL, DLL, CCC)\n")
	b.WriteString("- Transceiver configuration and protocols\n")
	b.WriteString("- Timing constraints (SDC, PDC)\n")
	b.WriteString("- I/O standards and pin assignment\n")
	b.WriteString("- Memory interfaces and controllers\n")
	return b.String()
}

func formatIPParameters(ipCore, parameter string, results []types.RankedResult, titles map[string]string) string {
	var b strings.Builder
	if parameter != "" {
		fmt.Fprintf(&b, "# Parameter Reference: %s.%s\n\n", ipCore, parameter)
	} else {
		fmt.Fprintf(&b, "# Parameter Reference: %s\n\n", ipCore)
	}

	for i, r := range results {
		fmt.Fprintf(&b, "## Source %d: %s\n", i+1, resultTitle(&r, titles))
		writeResultMeta(&b, &r)
		b.WriteString("\n")
		writeSnippet(&b, &r, parameterSnippetLen)
		b.WriteString("---\n\n")
	}

	b.WriteString("## Next Steps for TCL Generation\n")
	b.WriteString("1. Verify parameter names against the configuration GUI export\n")
	b.WriteString("2. Check valid value ranges before scripting `configure_core`\n")
	b.WriteString("3. Cross-reference the datasheet revision with your silicon revision\n")
	return b.String()
}

func formatErrorSolutions(errorMessage, contextText string, results []types.RankedResult, titles map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Error Analysis: %s\n\n", truncate(errorMessage, 120))
	if contextText != "" {
		fmt.Fprintf(&b, "**Context:** %s\n\n", contextText)
	}
	b.WriteString("Relevant documentation sections:\n\n")

	for i, r := range results {
		fmt.Fprintf(&b, "## Reference %d: %s\n", i+1, resultTitle(&r, titles))
		writeResultMeta(&b, &r)
		b.WriteString("\n")
		writeSnippet(&b, &r, parameterSnippetLen)
		b.WriteString("---\n\n")
	}

	b.WriteString("## Troubleshooting Steps\n")
	b.WriteString("1. Compare your configuration against the documented valid ranges above\n")
	b.WriteString("2. Check for conflicting constraints on the same resource\n")
	b.WriteString("3. Review the errata for the silicon revision in use\n")
	return b.String()
}

func formatTimingConstraints(constraintType, ipOrInterface string, results []types.RankedResult, titles map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Timing Constraints: %s\n\n", constraintType)
	if ipOrInterface != "" {
		fmt.Fprintf(&b, "**Target:** %s\n\n", ipOrInterface)
	}

	for i, r := range results {
		fmt.Fprintf(&b, "## Example %d: %s\n", i+1, resultTitle(&r, titles))
		writeResultMeta(&b, &r)
		b.WriteString("\n")
		writeSnippet(&b, &r, constraintSnippetLen)
		b.WriteString("---\n\n")
	}

	b.WriteString("## Applying Constraints\n")
	b.WriteString("1. Add SDC constraints in the timing constraints editor or import the file\n")
	b.WriteString("2. Run timing analysis after place and route to verify closure\n")
	b.WriteString("3. Physical (PDC) constraints are separate from timing (SDC) files\n")
	return b.String()
}

func resultTitle(r *types.RankedResult, titles map[string]string) string {
	if r.Chunk == nil {
		return r.ChunkID
	}
	if title, ok := titles[r.Chunk.DocumentID]; ok && title != "" {
		return title
	}
	return r.Chunk.DocumentID
}

func writeResultMeta(b *strings.Builder, r *types.RankedResult) {
	if r.Chunk == nil {
		return
	}
	fmt.Fprintf(b, "**Document:** %s (rev %s)\n", r.Chunk.DocumentID, r.Chunk.Revision)
	fmt.Fprintf(b, "**Page:** %d\n", r.Chunk.Page)
	if section := r.Chunk.SectionString(); section != "" {
		fmt.Fprintf(b, "**Section:** %s\n", section)
	}
	if r.Chunk.ContentType != types.ContentText {
		fmt.Fprintf(b, "**Content Type:** %s\n", r.Chunk.ContentType)
	}
}

func writeSnippet(b *strings.Builder, r *types.RankedResult, limit int) {
	if r.Chunk == nil {
		b.WriteString("_Chunk text unavailable._\n\n")
		return
	}
	b.WriteString("```\n")
	b.WriteString(truncate(r.Chunk.Text, limit))
	b.WriteString("\n```\n\n")
}

func writeQualityNotes(b *strings.Builder, resp *hybrid.Response) {
	if resp == nil {
		return
	}
	if resp.Degraded {
		fmt.Fprintf(b, "_Note: the %s index was unavailable; results come from a single retrieval source._\n", resp.DegradedSource)
	}
	if !resp.Reranked {
		b.WriteString("_Note: results are fusion-ordered; the reranking pass was not applied._\n")
	}
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	if idx := strings.LastIndex(cut, " "); idx > limit/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func noResultsText(query string) string {
	return fmt.Sprintf("No results found for '%s'.\n\nTry:\n- Using part numbers or signal names from the documentation (e.g. PF_CCC, CLK_0)\n- Broadening the query or removing filters\n- Checking corpus contents with get_fpga_doc_info", query)
}

func noIPResultsText(ipCore string) string {
	return fmt.Sprintf("No parameter documentation found for IP core '%s'.\n\nCheck the core name spelling (e.g. PF_CCC, PF_XCVR, CORERESET_PF) or list available documents with get_fpga_doc_info.", ipCore)
}

func noErrorResultsText(errorMessage string) string {
	return fmt.Sprintf("No documentation found matching the error '%s'.\n\nTry searching with just the error code, or the name of the resource the tool flagged.", truncate(errorMessage, 120))
}

func noConstraintResultsText(constraintType string) string {
	return fmt.Sprintf("No constraint examples found for '%s'.\n\nCommon constraint types: create_clock, create_generated_clock, set_input_delay, set_output_delay, set_false_path, set_multicycle_path.", constraintType)
}
