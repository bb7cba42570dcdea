package stage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
)

// DefaultListingURL is the SME listing of latest articles; %d is the page.
const DefaultListingURL = "https://www.sme.sk/najnovsie?page=%d"

// Discovery turns listing pages into snapshot URLs in the success sink.
type Discovery struct {
	listingURL string
	client     dataset.ContentClient
	limiter    dataset.RateLimiter
	parser     LinkParser
	success    dataset.URLSink
	recorder   dataset.Recorder
	logger     *zap.Logger
}

// NewDiscovery constructs a Discovery stage. listingURL must contain exactly
// one %d verb for the page number. recorder receives one lookup outcome per
// candidate link; it may be nil.
func NewDiscovery(
	listingURL string,
	client dataset.ContentClient,
	limiter dataset.RateLimiter,
	parser LinkParser,
	success dataset.URLSink,
	recorder dataset.Recorder,
	logger *zap.Logger,
) (*Discovery, error) {
	if listingURL == "" {
		listingURL = DefaultListingURL
	}
	if strings.Count(listingURL, "%d") != 1 {
		return nil, fmt.Errorf("listing url %q must contain exactly one %%d", listingURL)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{
		listingURL: listingURL,
		client:     client,
		limiter:    limiter,
		parser:     parser,
		success:    success,
		recorder:   recorder,
		logger:     logger.With(zap.String("stage", dataset.StageDiscovery)),
	}, nil
}

// PageURL returns the listing URL of page.
func (d *Discovery) PageURL(page int) string {
	return fmt.Sprintf(d.listingURL, page)
}

// HandlePage processes one listing page. Links are looked up in page order;
// the first failed lookup truncates the rest of the page.
func (d *Discovery) HandlePage(ctx context.Context, page int) dataset.Outcome {
	pageURL := d.PageURL(page)
	logger := d.logger.With(zap.Int("page", page), zap.String("url", pageURL))

	body, err := d.client.FetchPage(ctx, pageURL)
	if err != nil {
		outcome := dataset.Classify(err)
		logger.Warn("listing page fetch failed", zap.String("outcome", string(outcome)), zap.Error(err))
		return outcome
	}

	links, err := d.parser.Links(pageURL, body)
	if err != nil {
		logger.Warn("listing page parse failed", zap.Error(err))
		return dataset.Classify(err)
	}
	logger.Debug("listing page parsed", zap.Int("links", len(links)))

	truncated := false
	for i, link := range links {
		if err := d.limiter.Wait(ctx); err != nil {
			logger.Info("discovery interrupted", zap.Error(err))
			return dataset.OutcomeCanceled
		}
		ref, err := d.client.LookupSnapshot(ctx, link.ArticleURL)
		if err != nil {
			outcome := dataset.Classify(err)
			d.recorder.Observe(dataset.StageLookup, outcome)
			logger.Warn("snapshot lookup failed, truncating page",
				zap.String("article_url", link.ArticleURL),
				zap.Int("link_index", i),
				zap.Int("links_dropped", len(links)-i-1),
				zap.String("outcome", string(outcome)),
				zap.Error(err),
			)
			truncated = true
			break
		}
		if !ref.Available {
			d.recorder.Observe(dataset.StageLookup, dataset.OutcomeUnavailable)
			continue
		}
		if err := d.success.Append(ctx, ref.SnapshotURL); err != nil {
			d.recorder.Observe(dataset.StageLookup, dataset.OutcomePersist)
			logger.Error("success sink append failed", zap.String("snapshot_url", ref.SnapshotURL), zap.Error(err))
			continue
		}
		d.recorder.Observe(dataset.StageLookup, dataset.OutcomeSucceeded)
		logger.Debug("snapshot recorded", zap.String("snapshot_url", ref.SnapshotURL))
	}

	if err := d.limiter.Wait(ctx); err != nil {
		logger.Info("discovery interrupted", zap.Error(err))
		return dataset.OutcomeCanceled
	}
	if truncated {
		return dataset.OutcomeTruncated
	}
	return dataset.OutcomeSucceeded
}
