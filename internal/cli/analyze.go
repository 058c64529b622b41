package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pagesentry/pagesentry/internal/core"
	"github.com/pagesentry/pagesentry/internal/utils"
)

func newAnalyzeCmd() *cobra.Command {
	var bundlePath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a collected signal bundle and print detections",
		Long: `Reads a SignalBundle JSON document (as produced by a page collector)
from a file or stdin, runs every enabled detector against it, and prints
the detections as JSON sorted by confidence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(func(service *core.AnalysisService, logger *zap.Logger) error {
				defer logger.Sync()

				bundle, err := readBundle(bundlePath)
				if err != nil {
					return err
				}

				report, err := service.AnalyzePage(context.Background(), bundle, pageMetaFor(bundle))
				if err != nil {
					return err
				}

				// Engine output follows catalog order; rank for display.
				sort.SliceStable(report.Detections, func(i, j int) bool {
					return report.Detections[i].Confidence > report.Detections[j].Confidence
				})

				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(report)
			})
		},
	}

	cmd.Flags().StringVarP(&bundlePath, "bundle", "b", "", "Signal bundle JSON file (reads stdin if omitted)")
	return cmd
}

func readBundle(path string) (*core.SignalBundle, error) {
	var reader io.Reader = os.Stdin
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open bundle file: %w", err)
		}
		defer file.Close()
		reader = file
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}

	var bundle core.SignalBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode signal bundle: %w", err)
	}
	if bundle.URL == "" {
		return nil, fmt.Errorf("signal bundle has no url")
	}

	bundle.PageHTML = utils.SanitizeUTF8(bundle.PageHTML)
	return &bundle, nil
}

func pageMetaFor(bundle *core.SignalBundle) core.PageMeta {
	meta := core.PageMeta{}
	if u, err := url.Parse(bundle.URL); err == nil {
		meta.Hostname = u.Hostname()
	}
	return meta
}
