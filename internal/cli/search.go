package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

var (
	searchTopK    int
	searchJSON    bool
	searchFilters []string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed corpus",
	Long: `Performs hybrid search across all indexed documents, combining
keyword (BM25) and semantic (vector) retrieval with rank fusion.

Filters restrict results by chunk metadata:
  fpga-rag search "CCC jitter" -f document_id=pf-ccc-ug -f content_type=table`,
	Args: cobra.ExactArgs(1),
	RunE: runSearchCmd,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringArrayVarP(&searchFilters, "filter", "f", nil, "metadata filter key=value (repeatable)")
	rootCmd.AddCommand(searchCmd)
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	queryText := args[0]

	filters, err := parseFilterFlags(searchFilters)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	var embedding []float32
	embedding, err = a.embedder.EmbedText(ctx, queryText)
	if err != nil {
		a.logger.Warn("query embedding failed, keyword-only search", zap.Error(err))
		embedding = nil
	}

	resp, err := a.search.Search(ctx, types.Query{
		Text:      queryText,
		Embedding: embedding,
		Filters:   filters,
		TopK:      searchTopK,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("%d results in %s", len(resp.Results), resp.Duration.Round(timePrecision))
	if resp.Degraded {
		cmd.Printf(" (degraded: %s source unavailable)", resp.DegradedSource)
	}
	cmd.Println()
	cmd.Println()

	for i, r := range resp.Results {
		cmd.Printf("[%d] %.3f", i+1, r.EffectiveScore())
		if r.Chunk != nil {
			cmd.Printf("  %s@%s p.%d", r.Chunk.DocumentID, r.Chunk.Revision, r.Chunk.Page)
			if section := r.Chunk.SectionString(); section != "" {
				cmd.Printf("  [%s]", section)
			}
			cmd.Println()
			cmd.Printf("    %s\n", snippet(r.Chunk.Text, 160))
		} else {
			cmd.Printf("  %s\n", r.ChunkID)
		}
	}
	return nil
}

func parseFilterFlags(flags []string) (types.Filters, error) {
	if len(flags) == 0 {
		return types.Filters{}, nil
	}
	kv := make(map[string]string, len(flags))
	for _, f := range flags {
		key, value, found := strings.Cut(f, "=")
		if !found || key == "" || value == "" {
			return types.Filters{}, fmt.Errorf("invalid filter %q, expected key=value", f)
		}
		kv[key] = value
	}
	return types.ParseFilters(kv)
}

func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
