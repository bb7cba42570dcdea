// Package sink holds the pipeline outputs: append-only URL logs and the
// router that bundles them with the record stores.
package sink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("url sink closed")

// URLFileSink appends one URL per line to a file. A single background
// goroutine owns the file; Append hands it the line and waits until the line
// is written, so concurrent callers never interleave partial lines.
type URLFileSink struct {
	name   string
	path   string
	logger *zap.Logger

	requests chan appendRequest
	stopCh   chan struct{}
	doneCh   chan struct{}
	closed   atomic.Bool

	closeOnce sync.Once
	file      *os.File
	closeErr  error
}

type appendRequest struct {
	line string
	ack  chan error
}

// NewURLFileSink starts the writer goroutine for path. The file and its parent
// directory are created on the first append. name labels the sink in logs
// and metrics ("success", "premium", "failed").
func NewURLFileSink(name, path string, logger *zap.Logger) *URLFileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &URLFileSink{
		name:     name,
		path:     path,
		logger:   logger.With(zap.String("sink", name)),
		requests: make(chan appendRequest),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Path returns the file the sink writes to.
func (s *URLFileSink) Path() string {
	return s.path
}

// Append writes url followed by a newline. Once the line has been handed to
// the writer the call waits for the write even if ctx is canceled.
func (s *URLFileSink) Append(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("append to %s sink: empty url", s.name)
	}
	if s.closed.Load() {
		return ErrClosed
	}
	req := appendRequest{line: url, ack: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-s.doneCh:
		return ErrClosed
	case <-ctx.Done():
		return fmt.Errorf("append to %s sink: %w", s.name, ctx.Err())
	}
	if err := <-req.ack; err != nil {
		return fmt.Errorf("append to %s sink: %w", s.name, err)
	}
	return nil
}

// Close stops the writer after the appends already handed over are written
// and closes the file. It is safe to call multiple times.
func (s *URLFileSink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
	})
	select {
	case <-s.doneCh:
		return s.closeErr
	case <-ctx.Done():
		return fmt.Errorf("url sink close wait: %w", ctx.Err())
	}
}

func (s *URLFileSink) run() {
	defer close(s.doneCh)
	for {
		select {
		case req := <-s.requests:
			req.ack <- s.write(req.line)
		case <-s.stopCh:
			s.handleStop()
			return
		}
	}
}

func (s *URLFileSink) handleStop() {
	for {
		select {
		case req := <-s.requests:
			req.ack <- s.write(req.line)
		default:
			if s.file != nil {
				s.closeErr = s.file.Close()
			}
			return
		}
	}
}

func (s *URLFileSink) write(line string) error {
	if s.file == nil {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
			return fmt.Errorf("create sink directory: %w", err)
		}
		// #nosec G304 -- sink paths come from configuration.
		f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open sink file: %w", err)
		}
		s.file = f
	}
	if _, err := s.file.WriteString(line + "\n"); err != nil {
		s.logger.Warn("url sink write failed", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("write sink file: %w", err)
	}
	metrics.ObserveSinkAppend(s.name)
	return nil
}

// ReadURLs returns the non-blank lines of a URL list file, trimmed, in file
// order.
func ReadURLs(path string) ([]string, error) {
	// #nosec G304 -- input paths come from configuration.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list %s: %w", path, err)
	}
	return urls, nil
}
