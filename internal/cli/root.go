// Package cli defines the fpga-rag command tree.
package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// timePrecision rounds durations in command output.
const timePrecision = time.Millisecond

var configPath string

var rootCmd = &cobra.Command{
	Use:   "fpga-rag",
	Short: "Hybrid search over FPGA vendor documentation",
	Long: `fpga-rag indexes FPGA vendor documentation (datasheets, user guides,
application notes) and serves hybrid keyword plus vector search over it,
either as an MCP server for AI assistants or as an HTTP API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
