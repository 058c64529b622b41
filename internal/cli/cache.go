package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/core"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the detection result cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "sweep",
			Short: "Delete all expired cache entries",
			RunE: func(cmd *cobra.Command, args []string) error {
				return invoke(func(cache core.DetectionCache, logger *zap.Logger) error {
					defer logger.Sync()
					if err := cache.Sweep(context.Background()); err != nil {
						return err
					}
					logger.Info("Cache sweep complete")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete all cache entries",
			RunE: func(cmd *cobra.Command, args []string) error {
				return invoke(func(cache core.DetectionCache, logger *zap.Logger) error {
					defer logger.Sync()
					if err := cache.Clear(context.Background()); err != nil {
						return err
					}
					logger.Info("Cache cleared")
					return nil
				})
			},
		},
	)

	return cmd
}
