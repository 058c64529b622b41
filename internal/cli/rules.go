package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagesentry/pagesentry/internal/catalog"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Work with detector rule catalogs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <catalog.yaml>",
		Short: "Validate a detector catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d categories, %d detectors, all valid\n",
				args[0], len(c.Categories), c.DetectorCount())
			return nil
		},
	})

	return cmd
}
