package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonzo97/mchp-fpga-mcp/internal/mcp"
	"github.com/jonzo97/mchp-fpga-mcp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol server for AI assistant integration.
The server communicates over stdio using JSON-RPC; logs go to stderr.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "fpga-rag": {
        "command": "/path/to/fpga-rag",
        "args": ["serve"]
      }
    }
  }`,
	RunE: runServe,
}

var serveHTTPCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Start the HTTP API server",
	RunE:  runServeHTTP,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(serveHTTPCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcp.NewServer(mcp.Deps{
		Search:      a.search,
		Embedder:    a.embedder,
		Store:       a.store,
		Logger:      a.logger,
		DefaultTopK: a.cfg.Search.DefaultTopK,
		MaxTopK:     a.cfg.Search.MaxTopK,
	})
	return srv.Serve(cmd.Context())
}

func runServeHTTP(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.NewServer(a.search, a.embedder, a.store, &a.cfg.Server, a.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down", zap.String("reason", "signal"))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	}
}
