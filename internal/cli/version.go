package cli

import (
	"github.com/spf13/cobra"

	"github.com/jonzo97/mchp-fpga-mcp/internal/mcp"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("%s %s\n", mcp.ServerName, mcp.ServerVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
