package metrics

import (
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
)

// Tally counts item outcomes per stage for the end-of-run report and mirrors
// every observation into the Prometheus item counter. It is safe for
// concurrent use.
type Tally struct {
	mu     sync.Mutex
	counts map[string]map[dataset.Outcome]int64
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]map[dataset.Outcome]int64)}
}

// Observe implements dataset.Recorder.
func (t *Tally) Observe(stage string, outcome dataset.Outcome) {
	t.mu.Lock()
	byOutcome, ok := t.counts[stage]
	if !ok {
		byOutcome = make(map[dataset.Outcome]int64)
		t.counts[stage] = byOutcome
	}
	byOutcome[outcome]++
	t.mu.Unlock()

	ObserveItem(stage, string(outcome))
}

// Count returns how many items of stage ended in outcome.
func (t *Tally) Count(stage string, outcome dataset.Outcome) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[stage][outcome]
}

// Total returns how many items of stage were observed.
func (t *Tally) Total(stage string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total int64
	for _, n := range t.counts[stage] {
		total += n
	}
	return total
}

// Snapshot copies the counts of stage.
func (t *Tally) Snapshot(stage string) map[dataset.Outcome]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[dataset.Outcome]int64, len(t.counts[stage]))
	for outcome, n := range t.counts[stage] {
		out[outcome] = n
	}
	return out
}

// LogSummary writes one line with the outcome counts of stage.
func (t *Tally) LogSummary(logger *zap.Logger, stage string) {
	snapshot := t.Snapshot(stage)
	fields := []zap.Field{zap.String("stage", stage), zap.Int64("total", t.Total(stage))}
	for _, outcome := range dataset.Outcomes {
		if n := snapshot[outcome]; n > 0 {
			fields = append(fields, zap.Int64(string(outcome), n))
		}
	}
	logger.Info("stage summary", fields...)
}
