// Package ratelimit implements the outbound request budget shared by every
// worker that talks to the archive: a process-wide token bucket followed by a
// randomized politeness delay.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
)

// Config holds rate limiter configuration.
type Config struct {
	// RequestsPerSecond caps the aggregate rate across all workers. Zero or
	// negative disables the bucket.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	// MinDelay and MaxDelay bound the uniform per-call jitter.
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// Validate rejects inverted or negative delay bounds.
func (c Config) Validate() error {
	if c.MinDelay < 0 || c.MaxDelay < 0 {
		return fmt.Errorf("rate limit delays must be >= 0")
	}
	if c.MaxDelay < c.MinDelay {
		return fmt.Errorf("rate limit max delay %s is below min delay %s", c.MaxDelay, c.MinDelay)
	}
	return nil
}

// Limiter is safe for concurrent use; one instance is shared by all workers.
type Limiter struct {
	bucket   *rate.Limiter
	minDelay time.Duration
	maxDelay time.Duration

	mu    sync.Mutex
	rnd   *rand.Rand
	pause func(ctx context.Context, d time.Duration) error
}

// New creates a new Limiter.
func New(cfg Config) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var bucket *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		bucket = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	now := uint64(time.Now().UnixNano())
	return &Limiter{
		bucket:   bucket,
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
		rnd:      rand.New(rand.NewPCG(now, now>>1)),
		pause:    timerPause,
	}, nil
}

// Wait blocks until the shared bucket grants a token and the jitter delay has
// elapsed. It only fails when ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if l.bucket != nil {
		if err := l.bucket.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if err := l.pause(ctx, l.jitter()); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	metrics.ObserveRateLimitDelay(time.Since(start))
	return nil
}

// jitter draws a delay uniformly from [minDelay, maxDelay].
func (l *Limiter) jitter() time.Duration {
	span := l.maxDelay - l.minDelay
	if span <= 0 {
		return l.minDelay
	}
	l.mu.Lock()
	n := l.rnd.Int64N(int64(span) + 1)
	l.mu.Unlock()
	return l.minDelay + time.Duration(n)
}

func timerPause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
