package stage

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) LookupSnapshot(ctx context.Context, target string) (dataset.SnapshotRef, error) {
	args := m.Called(ctx, target)
	ref, _ := args.Get(0).(dataset.SnapshotRef)
	return ref, args.Error(1)
}

func (m *mockClient) FetchPage(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

type memorySink struct {
	mu    sync.Mutex
	lines []string
}

func (s *memorySink) Append(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, url)
	return nil
}

func (s *memorySink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.lines...)
	sort.Strings(out)
	return out
}

type countingLimiter struct {
	mu    sync.Mutex
	waits int
	err   error
}

func (l *countingLimiter) Wait(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waits++
	return l.err
}

func (l *countingLimiter) Waits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waits
}
