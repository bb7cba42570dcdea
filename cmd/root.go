// Package cmd defines and implements the CLI commands of the dataset builder.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/app"
	"github.com/JakeFAU/news-archive-dataset/internal/config"
	"github.com/JakeFAU/news-archive-dataset/internal/id/runid"
	"github.com/JakeFAU/news-archive-dataset/internal/logging"
	pkgconfig "github.com/JakeFAU/news-archive-dataset/pkg/config"
)

// appKeyType is the key for storing the Pipeline in the context.
type appKeyType string

const appKey appKeyType = "app"

// Pipeline defines the application interface the commands use. It lets
// tests inject a fake pipeline.
type Pipeline interface {
	Discover(ctx context.Context) error
	Extract(ctx context.Context) error
	Normalize(ctx context.Context) error
	Run(ctx context.Context) error
	Close(ctx context.Context) error
	GetLogger() *zap.Logger
}

// newPipeline is the application factory. It's a variable so tests can
// replace it.
var newPipeline = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (Pipeline, error) {
	return app.New(ctx, cfg, logger)
}

// flagBindings maps CLI flags onto configuration keys. A flag only
// overrides the file and environment when it is set.
var flagBindings = map[string]string{
	"start-page":            "discovery.start_page",
	"end-page":              "discovery.end_page",
	"discovery-workers":     "discovery.workers",
	"extraction-workers":    "extraction.workers",
	"normalization-workers": "normalization.workers",
	"input":                 "extraction.input",
	"skip-existing":         "extraction.skip_existing",
	"log-level":             "logging.level",
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "dataset-builder",
		Short: "Builds a text dataset from archived news portal articles.",
		Long: `dataset-builder discovers archived snapshots of news portal articles,
extracts their title, introduction and body, and normalizes the text into a
dataset of one JSON record per article. Each stage is a rate-limited worker
pool; run executes all three in sequence.`,
		SilenceUsage: true,

		// Builds the pipeline before the subcommand's RunE and stores it in
		// the command context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, cfgFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			runID, err := runid.New().NewID()
			if err != nil {
				return err
			}
			logger = logger.With(zap.String("run_id", runID), zap.String("command", cmd.Name()))
			zap.ReplaceGlobals(logger)

			pipeline, err := newPipeline(cmd.Context(), cfg, logger)
			if err != nil {
				_ = logger.Sync()
				return fmt.Errorf("failed to initialize pipeline services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, pipeline))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or $HOME/.dataset-builder/config.yaml)")
	flags.Int("start-page", 0, "first listing page to discover")
	flags.Int("end-page", 0, "listing page to stop before (exclusive)")
	flags.Int("discovery-workers", 0, "discovery workers (-1 for all CPUs)")
	flags.Int("extraction-workers", 0, "extraction workers (-1 for all CPUs)")
	flags.Int("normalization-workers", 0, "normalization workers (-1 for all CPUs)")
	flags.String("input", "", "snapshot URL list to extract (default is the discovery success file)")
	flags.Bool("skip-existing", false, "skip URLs whose extracted record already exists")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newDiscoverCmd(),
		newExtractCmd(),
		newNormalizeCmd(),
		newRunCmd(),
	)
	return cmd
}

func loadConfig(cmd *cobra.Command, cfgFile string) (config.Config, error) {
	v, err := pkgconfig.NewViper(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if err := bindFlags(cmd, v); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func resolvePipeline(ctx context.Context) (Pipeline, error) {
	pipeline, ok := ctx.Value(appKey).(Pipeline)
	if !ok || pipeline == nil {
		return nil, errors.New("pipeline services not initialized")
	}
	return pipeline, nil
}

// Execute is the main entry point. SIGINT and SIGTERM cancel the running
// stage; items already handed to a worker finish first.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		zap.L().Error("Command execution failed", zap.Error(err))
		os.Exit(1)
	}
}
