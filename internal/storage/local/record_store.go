// Package local implements a local filesystem record store.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JakeFAU/news-archive-dataset/internal/metrics"
)

const tempPrefix = ".tmp-"

// Config captures the parameters for the local filesystem record store.
type Config struct {
	// BaseDir is the directory holding one file per record.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Store keeps records as files directly under BaseDir.
type Store struct {
	baseDir string
}

// New creates a new local filesystem-backed record store. The directory is
// created when missing and checked for write access.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	probe, err := os.CreateTemp(cfg.BaseDir, tempPrefix+"probe-*")
	if err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	_ = probe.Close()
	if err := os.Remove(probe.Name()); err != nil {
		return nil, fmt.Errorf("failed to clean up probe file: %w", err)
	}

	return &Store{baseDir: cfg.BaseDir}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.baseDir
}

// Put writes data to a temp file next to the target and renames it into
// place, so readers see either the previous record or the new one.
func (s *Store) Put(_ context.Context, name string, data []byte) error {
	fullPath, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.baseDir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename record into place: %w", err)
	}
	metrics.ObserveRecordWrite(filepath.Base(s.baseDir))
	return nil
}

// Get reads a record. A missing record wraps os.ErrNotExist.
func (s *Store) Get(_ context.Context, name string) ([]byte, error) {
	fullPath, err := s.path(name)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path is confined to baseDir by s.path.
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", name, err)
	}
	return data, nil
}

// Exists reports whether a record is stored under name.
func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	fullPath, err := s.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullPath)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat record %s: %w", name, err)
	}
}

// List returns the names of all stored records, sorted. In-flight temp files
// and subdirectories are not records.
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.baseDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// path resolves name inside baseDir and rejects anything that would escape
// it or that is not a plain file name.
func (s *Store) path(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("record name is required")
	}
	fullPath := filepath.Join(s.baseDir, name)
	cleanBaseDir := filepath.Clean(s.baseDir)
	if filepath.Dir(fullPath) != cleanBaseDir {
		return "", fmt.Errorf("path traversal detected")
	}
	return fullPath, nil
}
