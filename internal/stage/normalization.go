package stage

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/dispatcher"
	"github.com/JakeFAU/news-archive-dataset/internal/sink"
	"github.com/JakeFAU/news-archive-dataset/internal/textnorm"
)

// Normalization rewrites extracted records into normalized records.
type Normalization struct {
	resources *textnorm.Resources
	opts      []textnorm.Option
	in        dataset.RecordStore
	out       dataset.RecordStore
	logger    *zap.Logger
}

// NewNormalization constructs a Normalization stage reading router.Extracted
// and writing router.Normalized. resources is shared read-only by all
// workers.
func NewNormalization(resources *textnorm.Resources, router *sink.Router, logger *zap.Logger, opts ...textnorm.Option) *Normalization {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalization{
		resources: resources,
		opts:      opts,
		in:        router.Extracted,
		out:       router.Normalized,
		logger:    logger.With(zap.String("stage", dataset.StageNormalization)),
	}
}

// Factory returns a dispatcher factory giving every worker its own
// Normalizer.
func (n *Normalization) Factory() dispatcher.Factory[string] {
	return func(int) dispatcher.Handler[string] {
		norm := textnorm.New(n.resources, n.opts...)
		return func(ctx context.Context, name string) dataset.Outcome {
			return n.HandleFile(ctx, norm, name)
		}
	}
}

// HandleFile normalizes the record stored under name. Nothing is written
// unless every field normalizes.
func (n *Normalization) HandleFile(ctx context.Context, norm *textnorm.Normalizer, name string) dataset.Outcome {
	logger := n.logger.With(zap.String("file", name))

	var rec dataset.ExtractedRecord
	if err := sink.GetRecord(ctx, n.in, name, &rec); err != nil {
		outcome := dataset.Classify(err)
		logger.Warn("record load failed", zap.String("outcome", string(outcome)), zap.Error(err))
		return outcome
	}

	out := dataset.NormalizedRecord{Category: rec.Category, URL: rec.URL}
	for _, field := range []struct {
		name string
		in   string
		out  *string
	}{
		{"title", rec.Title, &out.Title},
		{"introduction", rec.Introduction, &out.Introduction},
		{"document", rec.Document, &out.Document},
	} {
		normalized, err := norm.Normalize(field.in)
		if err != nil {
			logger.Warn("normalization failed", zap.String("field", field.name), zap.Error(err))
			return dataset.Classify(err)
		}
		*field.out = normalized
	}
	out.DocumentLemma = norm.Lemmatize(out.Document)

	if err := sink.PutRecord(ctx, n.out, name, out); err != nil {
		logger.Error("record write failed", zap.Error(err))
		return dataset.OutcomePersist
	}
	logger.Debug("record normalized")
	return dataset.OutcomeSucceeded
}
