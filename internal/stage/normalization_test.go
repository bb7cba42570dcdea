package stage

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/dispatcher"
	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
	"github.com/JakeFAU/news-archive-dataset/internal/sink"
	"github.com/JakeFAU/news-archive-dataset/internal/storage/memory"
	"github.com/JakeFAU/news-archive-dataset/internal/textnorm"
)

func newNormalizationFixture(opts ...textnorm.Option) (*Normalization, *memory.Store, *memory.Store) {
	in, out := memory.NewStore(), memory.NewStore()
	res := textnorm.NewResources([]string{"je", "svet"}, map[string]string{"hlavné": "hlavný"})
	n := NewNormalization(res, &sink.Router{Extracted: in, Normalized: out}, zap.NewNop(), opts...)
	return n, in, out
}

func TestNormalizationWritesNormalizedRecord(t *testing.T) {
	t.Parallel()

	n, in, out := newNormalizationFixture()
	ctx := context.Background()
	require.NoError(t, sink.PutRecord(ctx, in, "123456.json", dataset.ExtractedRecord{
		Title:        "Ahoj, svet 123!",
		Introduction: "Bratislava je hlavné mesto.",
		Document:     "Bratislava je hlavné mesto. Má 475 tisíc obyvateľov.",
		Category:     "domov",
		URL:          snapshotURL,
	}))

	norm := textnorm.New(textnorm.NewResources([]string{"je", "svet"}, map[string]string{"hlavné": "hlavný"}))
	assert.Equal(t, dataset.OutcomeSucceeded, n.HandleFile(ctx, norm, "123456.json"))

	var got dataset.NormalizedRecord
	require.NoError(t, sink.GetRecord(ctx, out, "123456.json", &got))
	assert.Equal(t, dataset.NormalizedRecord{
		Title:         "ahoj",
		Introduction:  "bratislava hlavné mesto",
		Document:      "bratislava hlavné mesto má tisíc obyvateľov",
		Category:      "domov",
		URL:           snapshotURL,
		DocumentLemma: "bratislava hlavný mesto má tisíc obyvateľov",
	}, got)
}

func TestNormalizationSerializationFault(t *testing.T) {
	t.Parallel()

	n, in, out := newNormalizationFixture()
	ctx := context.Background()
	require.NoError(t, in.Put(ctx, "broken.json", []byte(`{"title": "unterminated`)))

	assert.Equal(t, dataset.OutcomeSerialization, n.HandleFile(ctx, textnorm.New(nil), "broken.json"))
	assert.Zero(t, out.Len())
}

type failingDetector struct{}

func (failingDetector) Detect(string, string) (string, error) {
	return "", fmt.Errorf("%w: cannot detect", dataset.ErrLanguage)
}

func TestNormalizationLanguageFaultWritesNothing(t *testing.T) {
	t.Parallel()

	n, in, out := newNormalizationFixture(textnorm.WithDetector(failingDetector{}))
	ctx := context.Background()
	require.NoError(t, sink.PutRecord(ctx, in, "1.json", dataset.ExtractedRecord{Title: "t", Document: "d"}))

	tally := metrics.NewTally()
	err := dispatcher.Run(ctx, dispatcher.Config{Stage: dataset.StageNormalization, Workers: 2},
		slices.Values([]string{"1.json"}), n.Factory(), tally)
	require.NoError(t, err)

	assert.Equal(t, int64(1), tally.Count(dataset.StageNormalization, dataset.OutcomeLanguage))
	assert.Zero(t, out.Len())
}

func TestNormalizationMissingInput(t *testing.T) {
	t.Parallel()

	n, _, out := newNormalizationFixture()
	outcome := n.HandleFile(context.Background(), textnorm.New(nil), "missing.json")
	assert.NotEqual(t, dataset.OutcomeSucceeded, outcome)
	assert.Zero(t, out.Len())
}
