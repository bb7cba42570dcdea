package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViperReadsExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discovery:\n  workers: 3\n"), 0o600))

	v, err := NewViper(path)
	require.NoError(t, err)
	assert.Equal(t, 3, v.GetInt("discovery.workers"))
	assert.Equal(t, path, v.ConfigFileUsed())
}

func TestNewViperMissingExplicitFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestNewViperWithoutFileUsesEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DATASET_EXTRACTION_WORKERS", "5")

	v, err := NewViper("")
	require.NoError(t, err)
	assert.Equal(t, 5, v.GetInt("extraction.workers"))
}
