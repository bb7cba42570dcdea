package sink

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
	"github.com/JakeFAU/news-archive-dataset/internal/storage/memory"
)

func TestPutAndGetRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := dataset.ExtractedRecord{
		Index:        "123456",
		Title:        "Titulok",
		Introduction: "Úvod",
		Document:     "Text článku.",
		Category:     "domov",
		URL:          "http://web.archive.org/web/1/https://domov.sme.sk/c/123456/a.html",
	}

	require.NoError(t, PutRecord(ctx, store, "123456.json", rec))
	raw, err := store.Get(ctx, "123456.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "Titulok",
		"introduction": "Úvod",
		"document": "Text článku.",
		"category": "domov",
		"url": "http://web.archive.org/web/1/https://domov.sme.sk/c/123456/a.html"
	}`, string(raw))

	var back dataset.ExtractedRecord
	require.NoError(t, GetRecord(ctx, store, "123456.json", &back))
	rec.Index = ""
	assert.Equal(t, rec, back)
}

func TestRecordSerializationFaults(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	err := PutRecord(ctx, store, "bad.json", math.Inf(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrSerialization))

	require.NoError(t, store.Put(ctx, "broken.json", []byte(`{"title":`)))
	var rec dataset.ExtractedRecord
	err = GetRecord(ctx, store, "broken.json", &rec)
	require.Error(t, err)
	assert.Equal(t, dataset.OutcomeSerialization, dataset.Classify(err))
}

func TestRouterCloseClosesFileSinks(t *testing.T) {
	dir := t.TempDir()
	r := &Router{
		Success: NewURLFileSink("success", filepath.Join(dir, "s.txt"), nil),
		Failed:  NewURLFileSink("failed", filepath.Join(dir, "f.txt"), nil),
	}
	require.NoError(t, r.Close(context.Background()))
	assert.ErrorIs(t, r.Success.Append(context.Background(), "http://x"), ErrClosed)
}
