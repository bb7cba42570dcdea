// Package app initializes and holds long-lived pipeline services, acting as a
// dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/api"
	"github.com/JakeFAU/news-archive-dataset/internal/archive"
	"github.com/JakeFAU/news-archive-dataset/internal/config"
	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/dispatcher"
	"github.com/JakeFAU/news-archive-dataset/internal/extract"
	collyfetcher "github.com/JakeFAU/news-archive-dataset/internal/fetcher/colly"
	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
	"github.com/JakeFAU/news-archive-dataset/internal/policy/ratelimit"
	"github.com/JakeFAU/news-archive-dataset/internal/sink"
	"github.com/JakeFAU/news-archive-dataset/internal/stage"
	"github.com/JakeFAU/news-archive-dataset/internal/storage"
	"github.com/JakeFAU/news-archive-dataset/internal/textnorm"
)

// App holds the shared services of one pipeline run: the rate limiter shared
// by every outbound call, the archive client, the output router, and the
// outcome tally. It is built once per command and closed when it finishes.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	tally   *metrics.Tally
	limiter *ratelimit.Limiter
	client  dataset.ContentClient
	opener  *storage.Opener
	router  *sink.Router
	server  *api.Server
}

// Option customizes New.
type Option func(*options)

type options struct {
	gcsFactory storage.ClientFactory
	client     dataset.ContentClient
}

// WithStorageClientFactory overrides how the GCS client is built.
func WithStorageClientFactory(f storage.ClientFactory) Option {
	return func(o *options) { o.gcsFactory = f }
}

// WithContentClient replaces the colly-backed archive client.
func WithContentClient(c dataset.ContentClient) Option {
	return func(o *options) { o.client = c }
}

// New creates and initializes an App from cfg. It fails fast when a service
// cannot be initialized, before any item is dispatched.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	metrics.Init()
	logger.Info("Initializing pipeline services...")

	limiter, err := ratelimit.New(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	client := o.client
	if client == nil {
		client = newArchiveClient(cfg)
	}

	opener, err := storage.NewOpener(ctx, cfg.Output.Config, o.gcsFactory, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	extracted, err := opener.Open(cfg.Output.ExtractedDir)
	if err != nil {
		closeOpener(opener, logger)
		return nil, fmt.Errorf("failed to open extracted store: %w", err)
	}
	normalized, err := opener.Open(cfg.Output.NormalizedDir)
	if err != nil {
		closeOpener(opener, logger)
		return nil, fmt.Errorf("failed to open normalized store: %w", err)
	}
	logger.Info("Using record storage",
		zap.String("backend", cfg.Output.Backend),
		zap.String("extracted", cfg.Output.ExtractedDir),
		zap.String("normalized", cfg.Output.NormalizedDir),
	)

	success := sink.NewURLFileSink("success", cfg.Output.SuccessFile, logger)
	premium := sink.NewURLFileSink("premium", cfg.Output.PremiumFile, logger)
	failed := sink.NewURLFileSink("failed", cfg.Output.FailedFile, logger)
	logger.Info("Using URL sinks",
		zap.String("success", success.Path()),
		zap.String("premium", premium.Path()),
		zap.String("failed", failed.Path()),
	)

	a := &App{
		cfg:     cfg,
		logger:  logger,
		tally:   metrics.NewTally(),
		limiter: limiter,
		client:  client,
		opener:  opener,
		router: &sink.Router{
			Success:    success,
			Premium:    premium,
			Failed:     failed,
			Extracted:  extracted,
			Normalized: normalized,
		},
	}

	if cfg.Metrics.ListenAddr != "" {
		a.server = api.NewServer(a.tally, logger.Named("api"))
		if _, err := a.server.Start(cfg.Metrics.ListenAddr); err != nil {
			a.server = nil
			if closeErr := a.Close(ctx); closeErr != nil {
				logger.Warn("Error releasing services after metrics server failure", zap.Error(closeErr))
			}
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	logger.Info("Pipeline services initialized successfully.")
	return a, nil
}

func newArchiveClient(cfg config.Config) *archive.Client {
	lookup := collyfetcher.New(collyfetcher.Config{
		Kind:          "lookup",
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.HTTP.LookupTimeout,
	})
	page := collyfetcher.New(collyfetcher.Config{
		Kind:          "page",
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.HTTP.PageTimeout,
	})
	return archive.NewClient(lookup, page, cfg.Archive.LookupEndpoint)
}

func closeOpener(opener *storage.Opener, logger *zap.Logger) {
	if err := opener.Close(); err != nil {
		logger.Warn("Error closing storage", zap.Error(err))
	}
}

// GetLogger returns the shared zap logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetTally returns the outcome tally of this run.
func (a *App) GetTally() *metrics.Tally {
	return a.tally
}

// GetRouter exposes the outputs of this run.
func (a *App) GetRouter() *sink.Router {
	return a.router
}

// Discover walks the listing pages [start_page, end_page) and appends every
// available snapshot URL to the success sink.
func (a *App) Discover(ctx context.Context) error {
	d, err := stage.NewDiscovery(
		a.cfg.Portal.ListingURL,
		a.client,
		a.limiter,
		extract.NewListingParser(a.cfg.Portal.Selectors),
		a.router.Success,
		a.tally,
		a.logger,
	)
	if err != nil {
		return fmt.Errorf("init discovery: %w", err)
	}
	a.logger.Info("Discovery started",
		zap.Int("start_page", a.cfg.Discovery.StartPage),
		zap.Int("end_page", a.cfg.Discovery.EndPage),
	)

	err = dispatcher.Run(ctx, dispatcher.Config{
		Stage:   dataset.StageDiscovery,
		Workers: a.cfg.Discovery.Workers,
		Logger:  a.logger,
	}, pageRange(a.cfg.Discovery.StartPage, a.cfg.Discovery.EndPage),
		func(int) dispatcher.Handler[int] { return d.HandlePage },
		a.tally,
	)
	a.tally.LogSummary(a.logger, dataset.StageDiscovery)
	a.tally.LogSummary(a.logger, dataset.StageLookup)
	return err
}

// Extract fetches every snapshot URL of the extraction input and stores the
// extracted records.
func (a *App) Extract(ctx context.Context) error {
	input := a.cfg.ExtractionInput()
	urls, err := sink.ReadURLs(input)
	if err != nil {
		return fmt.Errorf("load extraction input: %w", err)
	}
	a.logger.Info("Extraction started", zap.String("input", input), zap.Int("urls", len(urls)))

	ex := stage.NewExtraction(
		stage.ExtractionConfig{SkipExisting: a.cfg.Extraction.SkipExisting},
		a.client,
		a.limiter,
		extract.NewPageExtractor(a.cfg.Portal.Selectors),
		dataset.NewIdentityParser(a.cfg.Portal.Domain),
		a.router,
		a.logger,
	)
	err = dispatcher.Run(ctx, dispatcher.Config{
		Stage:   dataset.StageExtraction,
		Workers: a.cfg.Extraction.Workers,
		Logger:  a.logger,
	}, slices.Values(urls),
		func(int) dispatcher.Handler[string] { return ex.HandleURL },
		a.tally,
	)
	a.tally.LogSummary(a.logger, dataset.StageExtraction)
	return err
}

// Normalize rewrites every record of the extracted store into the
// normalized store.
func (a *App) Normalize(ctx context.Context) error {
	res, err := textnorm.LoadResources(a.cfg.Normalization.StopwordsFile, a.cfg.Normalization.LemmaFile)
	if err != nil {
		return fmt.Errorf("load normalization resources: %w", err)
	}
	names, err := a.router.Extracted.List(ctx)
	if err != nil {
		return fmt.Errorf("list extracted records: %w", err)
	}
	a.logger.Info("Normalization started",
		zap.Int("records", len(names)),
		zap.Int("stopwords", len(res.Stopwords)),
		zap.Int("lemmas", len(res.Lemmas)),
	)

	n := stage.NewNormalization(res, a.router, a.logger, textnorm.WithLanguage(a.cfg.Normalization.Language))
	err = dispatcher.Run(ctx, dispatcher.Config{
		Stage:   dataset.StageNormalization,
		Workers: a.cfg.Normalization.Workers,
		Logger:  a.logger,
	}, slices.Values(names), n.Factory(), a.tally)
	a.tally.LogSummary(a.logger, dataset.StageNormalization)
	return err
}

// Run executes discovery, extraction, and normalization in sequence. A
// stage error stops the remaining stages.
func (a *App) Run(ctx context.Context) error {
	for _, step := range []struct {
		name string
		run  func(context.Context) error
	}{
		{dataset.StageDiscovery, a.Discover},
		{dataset.StageExtraction, a.Extract},
		{dataset.StageNormalization, a.Normalize},
	} {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

// Close gracefully shuts down all services in the App container. URL sinks
// are drained before the storage client is released.
func (a *App) Close(ctx context.Context) error {
	a.logger.Info("Shutting down pipeline services...")
	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.router != nil {
		if err := a.router.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close url sinks: %w", err))
		}
	}
	if err := a.opener.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func pageRange(start, end int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for page := start; page < end; page++ {
			if !yield(page) {
				return
			}
		}
	}
}
