package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// closeTimeout bounds draining the URL sinks and stopping the metrics server.
const closeTimeout = 30 * time.Second

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Finds archived snapshots of the articles on the listing pages",
		Long: `Walks the listing pages [start_page, end_page), asks the archive for the
closest snapshot of every article link, and appends the available snapshot
URLs to the success file.`,
		Args: cobra.NoArgs,
		RunE: runStage("discover", Pipeline.Discover),
	}
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extracts articles from the discovered snapshots",
		Long: `Fetches every snapshot URL of the extraction input and stores one record
per article. Paywalled pages go to the premium file and unreachable ones to
the failed file.`,
		Args: cobra.NoArgs,
		RunE: runStage("extract", Pipeline.Extract),
	}
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Normalizes the text of the extracted records",
		Long: `Tokenizes, lowercases, and filters the stopwords of every extracted record
and writes the normalized record, with a lemmatized document, under the same
name.`,
		Args: cobra.NoArgs,
		RunE: runStage("normalize", Pipeline.Normalize),
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Runs discovery, extraction, and normalization in sequence",
		Args:  cobra.NoArgs,
		RunE:  runStage("run", Pipeline.Run),
	}
}

// runStage resolves the pipeline, runs fn, and always closes the pipeline.
// An interrupted stage is logged, not reported as a failure.
func runStage(name string, fn func(Pipeline, context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		pipeline, err := resolvePipeline(cmd.Context())
		if err != nil {
			return err
		}
		logger := pipeline.GetLogger()
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			if closeErr := pipeline.Close(closeCtx); closeErr != nil {
				logger.Warn("Failed to close pipeline", zap.Error(closeErr))
				if err == nil {
					err = fmt.Errorf("close pipeline: %w", closeErr)
				}
			}
			// Syncing stderr fails on some platforms; nothing to do about it.
			_ = logger.Sync()
		}()

		start := time.Now()
		if err := fn(pipeline, cmd.Context()); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Warn("Command interrupted", zap.String("command", name), zap.Error(err))
				return nil
			}
			return fmt.Errorf("%s: %w", name, err)
		}
		logger.Info("Command finished.", zap.String("command", name), zap.Duration("elapsed", time.Since(start)))
		return nil
	}
}
