package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
	"github.com/mkviewer/mkviewer/internal/render"
)

func countingLoader(loads *atomic.Int32, text string) Loader {
	return func(context.Context) (*render.Rendered, error) {
		loads.Add(1)
		return &render.Rendered{Text: text}, nil
	}
}

func TestRenderCache_HitSkipsLoader(t *testing.T) {
	c := New(8)
	var loads atomic.Int32

	// First access loads
	r1, err := c.Get(context.Background(), "a.md", "t1", countingLoader(&loads, "v1"))
	require.NoError(t, err)
	assert.Equal(t, "v1", r1.Text)
	assert.Equal(t, int32(1), loads.Load())

	// Second access with unchanged token performs no load
	r2, err := c.Get(context.Background(), "a.md", "t1", countingLoader(&loads, "v1"))
	require.NoError(t, err)
	assert.Same(t, r1, r2)
	assert.Equal(t, int32(1), loads.Load())
}

func TestRenderCache_ChangedTokenReloads(t *testing.T) {
	c := New(8)
	var loads atomic.Int32

	r1, err := c.Get(context.Background(), "a.md", "t1", countingLoader(&loads, "old"))
	require.NoError(t, err)

	r2, err := c.Get(context.Background(), "a.md", "t2", countingLoader(&loads, "new"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), loads.Load())
	assert.NotSame(t, r1, r2)
	assert.Equal(t, "new", r2.Text)
}

func TestRenderCache_ConcurrentMissesCoalesce(t *testing.T) {
	c := New(8)
	var loads atomic.Int32
	gate := make(chan struct{})

	loader := func(context.Context) (*render.Rendered, error) {
		loads.Add(1)
		<-gate
		return &render.Rendered{Text: "shared"}, nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]*render.Rendered, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Get(context.Background(), "big.docx", "t1", loader)
		}(i)
	}

	// Let all goroutines queue up on the flight, then release it
	gate <- struct{}{}
	close(gate)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), loads.Load(), "exactly one load for concurrent misses")
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestRenderCache_LoaderFailureNotCached(t *testing.T) {
	c := New(8)
	calls := 0

	failing := func(context.Context) (*render.Rendered, error) {
		calls++
		return nil, fmt.Errorf("store exploded")
	}

	_, err := c.Get(context.Background(), "a.md", "t1", failing)
	require.Error(t, err)
	assert.Equal(t, vererrors.ErrCodeRenderFailure, vererrors.CodeOf(err))

	var ve *vererrors.ViewerError
	require.True(t, vererrors.As(err, &ve))
	assert.Equal(t, "a.md", ve.Key)

	// Failure was not cached: next access tries again
	_, err = c.Get(context.Background(), "a.md", "t1", failing)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestRenderCache_TypedLoaderErrorPassesThrough(t *testing.T) {
	c := New(8)

	notFound := func(context.Context) (*render.Rendered, error) {
		return nil, vererrors.New(vererrors.ErrCodeObjectNotFound, "object not found", nil).WithKey("a.md")
	}

	_, err := c.Get(context.Background(), "a.md", "t1", notFound)
	require.Error(t, err)
	assert.Equal(t, vererrors.ErrCodeObjectNotFound, vererrors.CodeOf(err))
}

func TestRenderCache_ClearForcesReload(t *testing.T) {
	c := New(8)
	var loads atomic.Int32

	_, err := c.Get(context.Background(), "a.md", "t1", countingLoader(&loads, "v"))
	require.NoError(t, err)

	evicted := c.Clear()
	assert.Equal(t, 1, evicted)

	_, err = c.Get(context.Background(), "a.md", "t1", countingLoader(&loads, "v"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())
}

func TestRenderCache_CapacityEvictsLRU(t *testing.T) {
	c := New(2)
	var loads atomic.Int32

	for _, key := range []string{"a", "b", "c"} {
		_, err := c.Get(context.Background(), key, "t", countingLoader(&loads, key))
		require.NoError(t, err)
	}

	// "a" was least recently used and fell out
	_, ok := c.Peek("a", "t")
	assert.False(t, ok)
	_, ok = c.Peek("c", "t")
	assert.True(t, ok)
}
