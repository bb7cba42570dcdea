// Package gcs provides a record store backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
)

// Config captures the parameters required to store records in GCS.
type Config struct {
	Bucket string `mapstructure:"bucket"`
	// Prefix is prepended to every record name ("dataset/extracted").
	Prefix string `mapstructure:"prefix"`
}

// Store writes records as objects of a configured GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed record store.
func New(client *storage.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *Store) object(name string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.objectName(name))
}

func (s *Store) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put uploads data in a single request; GCS publishes an object only once
// the upload completes, so readers never see a partial record.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("record name is required")
	}
	writer := s.object(name).NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.ChunkSize = 0
	if _, err := writer.Write(data); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return fmt.Errorf("write object %s: %w (close writer: %v)", name, err, closeErr)
		}
		return fmt.Errorf("write object %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer for object %s: %w", name, err)
	}
	metrics.ObserveRecordWrite("gcs:" + s.bucket)
	return nil
}

// Get downloads a record. A missing record wraps storage.ErrObjectNotExist.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	reader, err := s.object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", name, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", name, err)
	}
	return data, nil
}

// Exists reports whether an object is stored under name.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.object(name).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat object %s: %w", name, err)
	}
}

// List returns the record names directly under the prefix, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	query := &storage.Query{}
	if s.prefix != "" {
		query.Prefix = s.prefix + "/"
	}
	it := s.client.Bucket(s.bucket).Objects(ctx, query)

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects in %s: %w", s.bucket, err)
		}
		name := strings.TrimPrefix(attrs.Name, query.Prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
