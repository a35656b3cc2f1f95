// Package cache provides the content-addressed render cache. Entries are
// keyed by (key, changeToken), so a document whose content changed is simply
// a miss; the stale entry ages out of the LRU on its own and is never
// returned.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
	"github.com/mkviewer/mkviewer/internal/render"
)

// DefaultCapacity is the default number of rendered documents kept in memory.
const DefaultCapacity = 512

// Loader fetches and decodes a document on a cache miss.
type Loader func(ctx context.Context) (*render.Rendered, error)

// RenderCache is a bounded LRU of rendered documents with per-key load
// coalescing: concurrent misses for the same (key, changeToken) share one
// loader invocation.
type RenderCache struct {
	entries *lru.Cache[string, *render.Rendered]
	group   singleflight.Group
}

// New creates a render cache with the given capacity (DefaultCapacity if
// non-positive).
func New(capacity int) *RenderCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, _ := lru.New[string, *render.Rendered](capacity)
	return &RenderCache{entries: entries}
}

// Get returns the cached rendering for (key, changeToken), invoking load on a
// miss. Nothing is cached when load fails; the failure surfaces as a typed
// RenderFailure carrying the document key.
func (c *RenderCache) Get(ctx context.Context, key, changeToken string, load Loader) (*render.Rendered, error) {
	ck := cacheKey(key, changeToken)

	if rendered, ok := c.entries.Get(ck); ok {
		return rendered, nil
	}

	result, err, _ := c.group.Do(ck, func() (any, error) {
		// A concurrent winner may have populated the entry while this caller
		// was queued behind the flight.
		if rendered, ok := c.entries.Get(ck); ok {
			return rendered, nil
		}

		rendered, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(ck, rendered)
		return rendered, nil
	})
	if err != nil {
		// Keep store and render errors that are already typed; anything
		// else becomes a render failure carrying the document key.
		var verr *vererrors.ViewerError
		if vererrors.As(err, &verr) {
			return nil, err
		}
		return nil, vererrors.RenderFailure(key, err)
	}

	return result.(*render.Rendered), nil
}

// Peek returns the cached rendering without loading or touching recency.
func (c *RenderCache) Peek(key, changeToken string) (*render.Rendered, bool) {
	return c.entries.Peek(cacheKey(key, changeToken))
}

// Clear drops all entries and returns how many were evicted. The next access
// to any document reloads it from the store.
func (c *RenderCache) Clear() int {
	n := c.entries.Len()
	c.entries.Purge()
	return n
}

// Len returns the number of cached documents.
func (c *RenderCache) Len() int {
	return c.entries.Len()
}

func cacheKey(key, changeToken string) string {
	return fmt.Sprintf("%s\x00%s", key, changeToken)
}
