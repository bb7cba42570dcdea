package stage

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/sink"
)

// ExtractionConfig controls the Extraction stage.
type ExtractionConfig struct {
	// SkipExisting skips URLs whose record is already in the extracted store.
	SkipExisting bool
}

// Extraction turns snapshot URLs into extracted records.
type Extraction struct {
	cfg       ExtractionConfig
	client    dataset.ContentClient
	limiter   dataset.RateLimiter
	extractor FieldExtractor
	identity  dataset.IdentityParser
	premium   dataset.URLSink
	failed    dataset.URLSink
	records   dataset.RecordStore
	logger    *zap.Logger
}

// NewExtraction constructs an Extraction stage writing to the Premium,
// Failed, and Extracted outputs of router.
func NewExtraction(
	cfg ExtractionConfig,
	client dataset.ContentClient,
	limiter dataset.RateLimiter,
	extractor FieldExtractor,
	identity dataset.IdentityParser,
	router *sink.Router,
	logger *zap.Logger,
) *Extraction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extraction{
		cfg:       cfg,
		client:    client,
		limiter:   limiter,
		extractor: extractor,
		identity:  identity,
		premium:   router.Premium,
		failed:    router.Failed,
		records:   router.Extracted,
		logger:    logger.With(zap.String("stage", dataset.StageExtraction)),
	}
}

// HandleURL processes one snapshot URL.
func (e *Extraction) HandleURL(ctx context.Context, rawURL string) dataset.Outcome {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return dataset.OutcomeSkipped
	}
	logger := e.logger.With(zap.String("url", url))

	var (
		id  dataset.ArticleIdentity
		err error
	)
	if e.cfg.SkipExisting {
		// Already extracted records never consume a rate limiter token.
		if id, logger, err = e.identify(logger, url); err != nil {
			return dataset.OutcomeIdentity
		}
		exists, err := e.records.Exists(ctx, id.Filename())
		if err != nil {
			logger.Warn("existing record check failed", zap.Error(err))
		} else if exists {
			logger.Debug("record already extracted")
			return dataset.OutcomeSkipped
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		logger.Info("extraction interrupted", zap.Error(err))
		return dataset.OutcomeCanceled
	}

	if !e.cfg.SkipExisting {
		if id, logger, err = e.identify(logger, url); err != nil {
			return dataset.OutcomeIdentity
		}
	}

	body, err := e.client.FetchPage(ctx, url)
	if err != nil {
		return e.fetchFailed(ctx, logger, url, err)
	}

	fields, err := e.extractor.Extract(body)
	switch {
	case errors.Is(err, dataset.ErrContentPolicy):
		if err := e.premium.Append(ctx, url); err != nil {
			logger.Error("premium sink append failed", zap.Error(err))
			return dataset.OutcomePersist
		}
		logger.Info("premium article")
		return dataset.OutcomePremium
	case err != nil:
		outcome := dataset.Classify(err)
		logger.Warn("article extraction failed", zap.String("outcome", string(outcome)), zap.Error(err))
		return outcome
	}

	record := dataset.NewExtractedRecord(id, url, fields)
	if err := sink.PutRecord(ctx, e.records, id.Filename(), record); err != nil {
		logger.Error("record write failed", zap.Error(err))
		return dataset.OutcomePersist
	}
	logger.Debug("record extracted")
	return dataset.OutcomeSucceeded
}

func (e *Extraction) identify(logger *zap.Logger, url string) (dataset.ArticleIdentity, *zap.Logger, error) {
	id, err := e.identity.Parse(url)
	if err != nil {
		logger.Warn("article identity not found", zap.Error(err))
		return id, logger, err
	}
	return id, logger.With(zap.String("index", id.Index), zap.String("category", id.Category)), nil
}

func (e *Extraction) fetchFailed(ctx context.Context, logger *zap.Logger, url string, err error) dataset.Outcome {
	outcome := dataset.Classify(err)
	switch outcome {
	case dataset.OutcomeTransport:
		logger.Warn("article fetch failed", zap.Error(err))
		if err := e.failed.Append(ctx, url); err != nil {
			logger.Error("failed sink append failed", zap.Error(err))
			return dataset.OutcomePersist
		}
	case dataset.OutcomeCanceled:
		logger.Info("extraction interrupted", zap.Error(err))
	default:
		logger.Warn("article fetch rejected", zap.String("outcome", string(outcome)), zap.Error(err))
	}
	return outcome
}
