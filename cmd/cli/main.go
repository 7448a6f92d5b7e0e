package main

import (
	"fmt"
	"os"

	"github.com/townsquare/complaint_analyzer/internal/cli"
)

var (
	version = "v1.0.0" // Overwritten at build time
)

func main() {
	rootCmd := cli.NewRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
