package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonzo97/mchp-fpga-mcp/internal/ingest"
)

var (
	ingestWatch    bool
	ingestDocID    string
	ingestRevision string
	ingestDocType  string
	ingestTitle    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a document or directory into the corpus",
	Long: `Ingest extracts, chunks, indexes, and embeds documents. The path may
be a single file (.pdf, .txt, .md) or a directory, which is walked
recursively. Unchanged files are skipped by checksum.

With --watch the directory is monitored and new or modified files are
ingested automatically until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch the directory for new files")
	ingestCmd.Flags().StringVar(&ingestDocID, "doc-id", "", "document id (single file only; inferred from name when empty)")
	ingestCmd.Flags().StringVar(&ingestRevision, "revision", "", "document revision (single file only)")
	ingestCmd.Flags().StringVar(&ingestDocType, "doc-type", "", "document type, e.g. 'Datasheet' (single file only)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (single file only)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline := ingest.New(a.store, a.index, a.embedder, a.logger, &ingest.Config{
		Workers: a.cfg.Ingest.Workers,
	})

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if !info.IsDir() {
		if ingestWatch {
			return fmt.Errorf("--watch requires a directory")
		}
		result, err := pipeline.IngestFile(ctx, path, ingest.FileMeta{
			DocID:    ingestDocID,
			Revision: ingestRevision,
			Title:    ingestTitle,
			DocType:  ingestDocType,
		})
		if err != nil {
			return err
		}
		if result.Skipped {
			cmd.Printf("Skipped %s@%s (unchanged)\n", result.DocID, result.Revision)
			return nil
		}
		cmd.Printf("Ingested %s@%s: %d pages, %d chunks in %s\n",
			result.DocID, result.Revision, result.Pages, result.Chunks, result.Duration.Round(timePrecision))
		return nil
	}

	stats, err := pipeline.IngestDir(ctx, path)
	if err != nil {
		return err
	}
	cmd.Printf("Run %s: %d ingested, %d skipped, %d failed, %d chunks in %s\n",
		stats.RunID, stats.Ingested, stats.Skipped, stats.Failed, stats.Chunks, stats.Duration.Round(timePrecision))
	for _, msg := range stats.ErrorMsgs {
		cmd.Printf("  error: %s\n", msg)
	}

	if !ingestWatch {
		return nil
	}

	watchCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := ingest.NewWatcher(path, pipeline, a.logger)
	if err := watcher.Start(watchCtx); err != nil {
		return err
	}
	defer watcher.Stop()

	a.logger.Info("watching for documents", zap.String("dir", path))
	<-watchCtx.Done()
	return nil
}
