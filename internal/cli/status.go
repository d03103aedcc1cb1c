package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus statistics and document manifest",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	stats, err := a.store.Stats(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Documents:  %d (%d ready)\n", stats.Documents, stats.Ready)
	cmd.Printf("Chunks:     %d\n", stats.Chunks)
	cmd.Printf("Embeddings: %d\n", stats.Embeddings)

	docs, err := a.store.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	cmd.Println()
	for _, doc := range docs {
		cmd.Printf("%-30s rev %-6s %-18s %5d pages %6d chunks  %s",
			doc.DocID, doc.Revision, doc.DocType, doc.PageCount, doc.ChunkCount, doc.Status)
		if doc.Notes != "" {
			cmd.Printf("  (%s)", doc.Notes)
		}
		cmd.Println()
	}
	return nil
}
