// Package local_test tests the local filesystem record store.
package local_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/news-archive-dataset/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		dir := t.TempDir()
		store, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		require.NotNil(t, store)
		assert.Equal(t, dir, store.Dir())
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "sme-archive-extracted-raw-content")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "testfile")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})
}

func TestPutGet(t *testing.T) {
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("ValidPut", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "22712345.json", []byte(`{"title":"a"}`)))

		// #nosec G304 -- test reads from the controlled temp directory.
		raw, err := os.ReadFile(filepath.Join(dir, "22712345.json"))
		require.NoError(t, err)
		assert.Equal(t, `{"title":"a"}`, string(raw))

		got, err := store.Get(ctx, "22712345.json")
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "123456.json", []byte(`{"v":1}`)))
		require.NoError(t, store.Put(ctx, "123456.json", []byte(`{"v":2}`)))

		got, err := store.Get(ctx, "123456.json")
		require.NoError(t, err)
		assert.Equal(t, `{"v":2}`, string(got))
	})

	t.Run("EmptyName", func(t *testing.T) {
		assert.Error(t, store.Put(ctx, "", []byte("data")))
	})

	t.Run("Traversal", func(t *testing.T) {
		assert.Error(t, store.Put(ctx, "../escape.json", []byte("data")))
		assert.Error(t, store.Put(ctx, "nested/record.json", []byte("data")))
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing.json")
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestExistsAndList(t *testing.T) {
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "1.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "2.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "1.json", []byte("{}")))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-leftover"), []byte("x"), 0o600))

	ok, err = store.Exists(ctx, "1.json")
	require.NoError(t, err)
	assert.True(t, ok)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.json", "2.json"}, names)
}

func TestConcurrentPutsLeaveOneCompleteRecord(t *testing.T) {
	store, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, "123456.json", []byte(fmt.Sprintf(`{"writer":%02d}`, i))))
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "123456.json")
	require.NoError(t, err)
	assert.Len(t, got, len(`{"writer":00}`))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"123456.json"}, names)
}
