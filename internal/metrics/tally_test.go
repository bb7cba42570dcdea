package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
)

func TestTallyCountsConcurrentObservations(t *testing.T) {
	tally := NewTally()
	Init()
	before := testutil.ToFloat64(itemsTotal.WithLabelValues("tally-test", string(dataset.OutcomePremium)))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				tally.Observe("tally-test", dataset.OutcomePremium)
				return
			}
			tally.Observe("tally-test", dataset.OutcomeSucceeded)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(10), tally.Count("tally-test", dataset.OutcomePremium))
	assert.Equal(t, int64(40), tally.Count("tally-test", dataset.OutcomeSucceeded))
	assert.Equal(t, int64(50), tally.Total("tally-test"))
	assert.Equal(t, int64(0), tally.Count("other", dataset.OutcomeSucceeded))

	after := testutil.ToFloat64(itemsTotal.WithLabelValues("tally-test", string(dataset.OutcomePremium)))
	assert.Equal(t, before+10, after)
}

func TestTallySnapshotIsACopy(t *testing.T) {
	tally := NewTally()
	tally.Observe("snap", dataset.OutcomeIdentity)

	snapshot := tally.Snapshot("snap")
	snapshot[dataset.OutcomeIdentity] = 100

	assert.Equal(t, int64(1), tally.Count("snap", dataset.OutcomeIdentity))
}

func TestTallyLogSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tally := NewTally()
	tally.Observe("summary", dataset.OutcomeSucceeded)
	tally.Observe("summary", dataset.OutcomeTransport)
	tally.Observe("summary", dataset.OutcomeTransport)

	tally.LogSummary(zap.New(core), "summary")

	entries := logs.FilterMessage("stage summary").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "summary", fields["stage"])
	assert.Equal(t, int64(3), fields["total"])
	assert.Equal(t, int64(2), fields["transport"])
	assert.NotContains(t, fields, "premium")
}
