// Package storage opens the record stores used by the pipeline. The backend
// is chosen once per run; each stage asks for the store of its directory.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/storage/gcs"
	"github.com/JakeFAU/news-archive-dataset/internal/storage/local"
	"github.com/JakeFAU/news-archive-dataset/internal/storage/memory"
)

// Supported backends.
const (
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// Config selects and parameterizes the record store backend.
type Config struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// ClientFactory creates GCS clients. Tests substitute one that points at a
// fake server.
type ClientFactory interface {
	NewClient(ctx context.Context) (*gcsclient.Client, error)
}

// DefaultClientFactory uses Application Default Credentials.
type DefaultClientFactory struct{}

// NewClient implements ClientFactory.
func (DefaultClientFactory) NewClient(ctx context.Context) (*gcsclient.Client, error) {
	return gcsclient.NewClient(ctx)
}

// Opener hands out record stores of one backend.
type Opener struct {
	cfg    Config
	client *gcsclient.Client
	logger *zap.Logger

	mu       sync.Mutex
	memories map[string]*memory.Store
}

// NewOpener validates cfg and, for the GCS backend, connects and checks that
// the bucket is reachable so a misconfiguration fails before any item runs.
func NewOpener(ctx context.Context, cfg Config, factory ClientFactory, logger *zap.Logger) (*Opener, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendLocal
	}
	o := &Opener{cfg: cfg, logger: logger, memories: make(map[string]*memory.Store)}

	switch cfg.Backend {
	case BackendLocal, BackendMemory:
		return o, nil
	case BackendGCS:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if cfg.GCSBucket == "" {
		return nil, fmt.Errorf("gcs backend requires a bucket")
	}
	if factory == nil {
		factory = DefaultClientFactory{}
	}
	client, err := factory.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	if _, err := client.Bucket(cfg.GCSBucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("Failed to close GCS client after bucket check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("failed to get GCS bucket '%s' attributes: %w", cfg.GCSBucket, err)
	}
	o.client = client
	return o, nil
}

// Open returns the store for dir. Local stores live in dir itself, GCS stores
// under <prefix>/<base name of dir>, and memory stores are shared per dir for
// the lifetime of the Opener.
func (o *Opener) Open(dir string) (dataset.RecordStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	switch o.cfg.Backend {
	case BackendGCS:
		store, err := gcs.New(o.client, gcs.Config{
			Bucket: o.cfg.GCSBucket,
			Prefix: path.Join(o.cfg.GCSPrefix, filepath.Base(dir)),
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendMemory:
		o.mu.Lock()
		defer o.mu.Unlock()
		store, ok := o.memories[dir]
		if !ok {
			store = memory.NewStore()
			o.memories[dir] = store
		}
		return store, nil
	default:
		store, err := local.New(local.Config{BaseDir: dir})
		if err != nil {
			return nil, err
		}
		o.logger.Debug("Opened local record store", zap.String("dir", store.Dir()))
		return store, nil
	}
}

// Close releases the GCS client, if any.
func (o *Opener) Close() error {
	if o.client == nil {
		return nil
	}
	if err := o.client.Close(); err != nil {
		return fmt.Errorf("close GCS client: %w", err)
	}
	return nil
}
