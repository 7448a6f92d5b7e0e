// Package cli implements the complaint-analyzer command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the root command with its subcommands.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "complaint-analyzer",
		Short: "AI-assisted civic complaint classification",
		Long: `complaint-analyzer classifies civic complaints into a category, severity and priority,
routes them to a department and suggests actions. It uses a multimodal model when one is
configured and falls back to keyword classification otherwise.`,
		SilenceUsage: true,
	}

	// Disable automatic 'completion' command added by cobra
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		NewAnalyzeCmd(),
		newVersionCmd(version),
	)

	return rootCmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "complaint-analyzer version %s\n", version)
		},
	}
}
