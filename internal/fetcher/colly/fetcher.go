// Package collyfetcher implements dataset.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
)

const defaultTimeout = 10 * time.Second

// Config controls collector behavior.
type Config struct {
	// Kind labels the requests of this fetcher in metrics ("lookup", "page").
	Kind          string
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
}

// Fetcher implements dataset.Fetcher using the Colly collector. Every HTTP
// status is handed back to the caller; only requests that never produced a
// response fail, with a *dataset.TransportError.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Kind == "" {
		cfg.Kind = "page"
	}
	c := colly.NewCollector(colly.Async(false))
	// Snapshots and listing pages are fetched once per run, but reruns in
	// the same process must not be refused as already visited.
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using Colly.
func (f *Fetcher) Fetch(ctx context.Context, url string) (dataset.Response, error) {
	var (
		result   dataset.Response
		fetchErr error
	)
	collector := f.buildCollector(&result, &fetchErr)

	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		metrics.ObserveHTTPRequest(f.cfg.Kind, 0)
		return dataset.Response{}, &dataset.TransportError{URL: url, Err: err}
	}
	metrics.ObserveHTTPRequest(f.cfg.Kind, result.StatusCode)
	return result, nil
}

func (f *Fetcher) buildCollector(result *dataset.Response, fetchErr *error) *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	collector.AllowURLRevisit = true
	// Non-2xx responses reach OnResponse so the caller can classify them.
	collector.ParseHTTPErrorResponse = true
	// Clones share the base backend; its timeout is set once in New.

	f.configureCollectorHooks(collector, result, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, result *dataset.Response, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		*result = dataset.Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
	}
}
