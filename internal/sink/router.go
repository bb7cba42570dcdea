package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JakeFAU/news-archive-dataset/internal/dataset"
)

// Router bundles the outputs of a run. Stages only see the fields they use;
// unused fields may be nil.
type Router struct {
	Success dataset.URLSink
	Premium dataset.URLSink
	Failed  dataset.URLSink

	Extracted  dataset.RecordStore
	Normalized dataset.RecordStore
}

type contextCloser interface {
	Close(ctx context.Context) error
}

// Close closes every URL sink that needs closing and joins their errors.
func (r *Router) Close(ctx context.Context) error {
	var errs []error
	for _, s := range []dataset.URLSink{r.Success, r.Premium, r.Failed} {
		if c, ok := s.(contextCloser); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// PutRecord encodes v as JSON and stores it under name. An encoding failure
// wraps dataset.ErrSerialization.
func PutRecord(ctx context.Context, store dataset.RecordStore, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", dataset.ErrSerialization, name, err)
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

// GetRecord loads name from store and decodes it into v. A decoding failure
// wraps dataset.ErrSerialization.
func GetRecord(ctx context.Context, store dataset.RecordStore, name string, v any) error {
	data, err := store.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", dataset.ErrSerialization, name, err)
	}
	return nil
}
