package main

import (
	"os"

	"github.com/jonzo97/mchp-fpga-mcp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
