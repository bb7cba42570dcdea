// Package dispatcher fans stage items out to a fixed pool of workers.
package dispatcher

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
)

// AllCPUs as a worker count sizes the pool to the number of CPUs.
const AllCPUs = -1

// Config controls one Run.
type Config struct {
	// Stage labels outcomes, metrics, and logs.
	Stage string
	// Workers is the pool size; AllCPUs resolves to runtime.NumCPU().
	Workers int
	Logger  *zap.Logger
}

// Handler processes one item and reports how it finished.
type Handler[T any] func(ctx context.Context, item T) dataset.Outcome

// Factory builds the handler of one worker. It is called once per worker,
// before any item is dispatched, so per-worker state lives in the closure.
type Factory[T any] func(workerID int) Handler[T]

// ResolveWorkers validates a configured worker count.
func ResolveWorkers(workers int) (int, error) {
	switch {
	case workers == AllCPUs:
		return runtime.NumCPU(), nil
	case workers > 0:
		return workers, nil
	default:
		return 0, fmt.Errorf("invalid worker count %d: must be positive or %d for all CPUs", workers, AllCPUs)
	}
}

// Run feeds items to cfg.Workers workers, one item at a time per worker, and
// records every outcome. Completion order is unspecified. A panicking handler
// is recorded as dataset.OutcomeUnknown and its worker keeps going.
//
// Canceling ctx stops dispatch; items already handed to a worker finish and
// Run returns the context error once every worker has exited.
func Run[T any](ctx context.Context, cfg Config, items iter.Seq[T], factory Factory[T], recorder dataset.Recorder) error {
	n, err := ResolveWorkers(cfg.Workers)
	if err != nil {
		return err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("stage", cfg.Stage))

	jobs := make(chan T)
	var g errgroup.Group
	for id := range n {
		handler := factory(id)
		workerLogger := logger.With(zap.Int("worker", id))
		g.Go(func() error {
			metrics.IncActiveWorkers(cfg.Stage)
			defer metrics.DecActiveWorkers(cfg.Stage)
			for item := range jobs {
				outcome := handle(ctx, handler, item, workerLogger)
				if recorder != nil {
					recorder.Observe(cfg.Stage, outcome)
				}
			}
			return nil
		})
	}
	logger.Debug("workers started", zap.Int("workers", n))

	var runErr error
	for item := range items {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		select {
		case jobs <- item:
		case <-ctx.Done():
			runErr = ctx.Err()
		}
		if runErr != nil {
			break
		}
	}
	close(jobs)
	_ = g.Wait()

	if runErr != nil {
		return fmt.Errorf("%s dispatch stopped: %w", cfg.Stage, runErr)
	}
	return nil
}

func handle[T any](ctx context.Context, handler Handler[T], item T, logger *zap.Logger) (outcome dataset.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panic",
				zap.Any("item", item),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			outcome = dataset.OutcomeUnknown
		}
	}()
	return handler(ctx, item)
}
