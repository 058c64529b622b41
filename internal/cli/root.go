// Package cli wires the pagesentry command tree. All dependencies are
// built through the dig container; commands only invoke them.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/pagesentry/pagesentry/internal/di"
)

// Execute builds the root command tree and runs the CLI.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:           "pagesentry",
		Short:         "Classify web page signals against a detector rule catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newCacheCmd(),
		newRulesCmd(),
	)

	return rootCmd.Execute()
}

// invoke builds the container and runs fn with injected dependencies.
func invoke(fn interface{}) error {
	container, err := di.BuildContainer()
	if err != nil {
		return err
	}
	return container.Invoke(fn)
}
