package dataset

import "context"

// Fetcher performs a single HTTP GET. Implementations return a Response for
// every HTTP status and a *TransportError when no response was received.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Response, error)
}

// Response is the raw result of a Fetcher call.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// RateLimiter blocks before an outbound call.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// ContentClient talks to the archive and to the archived pages.
type ContentClient interface {
	LookupSnapshot(ctx context.Context, targetURL string) (SnapshotRef, error)
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// URLSink is an append-only log of URLs.
type URLSink interface {
	Append(ctx context.Context, url string) error
}

// RecordStore persists one JSON document per name. Put is atomic and
// overwrites any previous content stored under the same name.
type RecordStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// Recorder receives the outcome of every processed item.
type Recorder interface {
	Observe(stage string, outcome Outcome)
}

// Stage names used in logs, metrics, and reports.
const (
	StageDiscovery     = "discovery"
	StageLookup        = "lookup"
	StageExtraction    = "extraction"
	StageNormalization = "normalization"
)
