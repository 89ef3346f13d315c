package enum

import (
	"context"
	"path/filepath"
	"sync"
)

// CombinedEnumerator runs multiple enumerators sequentially and deduplicates
// containers by name so overlapping inputs are extracted once.
type CombinedEnumerator struct {
	enumerators []Enumerator
}

// NewCombinedEnumerator creates a CombinedEnumerator that wraps the provided
// enumerators. They are run in order and duplicate containers (same cleaned
// name) are suppressed.
func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

// Enumerate runs each child enumerator in sequence, passing unique
// containers to callback.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	var mu sync.Mutex
	seen := make(map[string]bool)

	for _, e := range c.enumerators {
		err := e.Enumerate(ctx, func(ctx context.Context, ct Container) error {
			key := filepath.Clean(ct.Name)
			if abs, err := filepath.Abs(key); err == nil {
				key = abs
			}

			mu.Lock()
			if seen[key] {
				mu.Unlock()
				return nil
			}
			seen[key] = true
			mu.Unlock()

			return callback(ctx, ct)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
