package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingFetcher serves previews on demand and records load traffic.
type blockingFetcher struct {
	mu       sync.Mutex
	fetches  map[string]int
	failKeys map[string]bool
	inFlight atomic.Int64
	peak     atomic.Int64
	release  chan struct{}
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{
		fetches:  map[string]int{},
		failKeys: map[string]bool{},
	}
}

func (f *blockingFetcher) FetchPreview(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	f.fetches[key]++
	f.mu.Unlock()

	cur := f.inFlight.Add(1)
	for {
		old := f.peak.Load()
		if cur <= old || f.peak.CompareAndSwap(old, cur) {
			break
		}
	}
	defer f.inFlight.Add(-1)

	if f.release != nil {
		<-f.release
	}

	if f.failKeys[key] {
		return nil, errors.New("preview unavailable")
	}

	return []byte("img:" + key), nil
}

func (f *blockingFetcher) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[key]
}

// collector gathers onLoaded callbacks and lets tests wait for them.
type collector struct {
	mu      sync.Mutex
	results map[string][]byte
	errs    map[string]error
	seen    chan string
}

func newCollector() *collector {
	return &collector{
		results: map[string][]byte{},
		errs:    map[string]error{},
		seen:    make(chan string, 256),
	}
}

func (c *collector) onLoaded(key string, data []byte, err error) {
	c.mu.Lock()
	c.results[key] = data
	c.errs[key] = err
	c.mu.Unlock()
	c.seen <- key
}

func (c *collector) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for load %d of %d", i+1, n)
		}
	}
}

func TestPreviewLoader_LoadsAndCaches(t *testing.T) {
	fetcher := newBlockingFetcher()
	col := newCollector()
	loader := NewPreviewLoader(fetcher, col.onLoaded)
	ctx := context.Background()

	loader.Visible(ctx, "a.png")
	col.wait(t, 1)

	assert.Equal(t, []byte("img:a.png"), col.results["a.png"])
	assert.NoError(t, col.errs["a.png"])
	require.True(t, loader.Cached("a.png"))

	// Second visibility hits the cache, not the fetcher.
	loader.Visible(ctx, "a.png")
	col.wait(t, 1)
	assert.Equal(t, 1, fetcher.count("a.png"))
}

func TestPreviewLoader_ConcurrencyCap(t *testing.T) {
	fetcher := newBlockingFetcher()
	fetcher.release = make(chan struct{})
	col := newCollector()
	loader := NewPreviewLoader(fetcher, col.onLoaded)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		loader.Visible(ctx, fmt.Sprintf("k%d.png", i))
	}

	// Let the first wave start and park on the release channel.
	require.Eventually(t, func() bool {
		return fetcher.inFlight.Load() == previewConcurrency
	}, 2*time.Second, 5*time.Millisecond)

	close(fetcher.release)
	col.wait(t, 10)

	assert.Equal(t, int64(previewConcurrency), fetcher.peak.Load())
	for i := 0; i < 10; i++ {
		assert.True(t, loader.Cached(fmt.Sprintf("k%d.png", i)))
	}
}

func TestPreviewLoader_DeduplicatesWhileLoading(t *testing.T) {
	fetcher := newBlockingFetcher()
	fetcher.release = make(chan struct{})
	col := newCollector()
	loader := NewPreviewLoader(fetcher, col.onLoaded)
	ctx := context.Background()

	loader.Visible(ctx, "a.png")
	loader.Visible(ctx, "a.png")
	loader.Visible(ctx, "a.png")

	close(fetcher.release)
	col.wait(t, 1)

	assert.Equal(t, 1, fetcher.count("a.png"))
}

func TestPreviewLoader_FailureFreesSlotAndSticks(t *testing.T) {
	fetcher := newBlockingFetcher()
	fetcher.failKeys["bad.png"] = true
	col := newCollector()
	loader := NewPreviewLoader(fetcher, col.onLoaded)
	ctx := context.Background()

	loader.Visible(ctx, "bad.png")
	col.wait(t, 1)

	assert.Error(t, col.errs["bad.png"])
	assert.False(t, loader.Cached("bad.png"))

	// Failed keys do not reload on further visibility.
	loader.Visible(ctx, "bad.png")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, fetcher.count("bad.png"))

	// The failed slot was released: other keys still load.
	loader.Visible(ctx, "good.png")
	col.wait(t, 1)
	assert.NoError(t, col.errs["good.png"])
}

func TestPreviewLoader_RetryClearsFailure(t *testing.T) {
	fetcher := newBlockingFetcher()
	fetcher.failKeys["flaky.png"] = true
	col := newCollector()
	loader := NewPreviewLoader(fetcher, col.onLoaded)
	ctx := context.Background()

	loader.Visible(ctx, "flaky.png")
	col.wait(t, 1)
	require.Error(t, col.errs["flaky.png"])

	fetcher.failKeys["flaky.png"] = false

	loader.Retry(ctx, "flaky.png")
	col.wait(t, 1)

	assert.NoError(t, col.errs["flaky.png"])
	assert.True(t, loader.Cached("flaky.png"))
	assert.Equal(t, 2, fetcher.count("flaky.png"))
}

func TestPreviewCache_EvictsOldestFirst(t *testing.T) {
	cache := newPreviewCache(50)

	for i := 0; i < 51; i++ {
		cache.Put(fmt.Sprintf("k%d", i), []byte{byte(i)})
	}

	assert.Equal(t, 50, cache.Len())

	_, ok := cache.Get("k0")
	assert.False(t, ok, "first inserted entry is evicted")

	_, ok = cache.Get("k1")
	assert.True(t, ok)
	_, ok = cache.Get("k50")
	assert.True(t, ok)
}

func TestPreviewCache_UpdateDoesNotGrow(t *testing.T) {
	cache := newPreviewCache(2)

	cache.Put("a", []byte("1"))
	cache.Put("b", []byte("2"))
	cache.Put("a", []byte("3"))

	assert.Equal(t, 2, cache.Len())

	data, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("3"), data)
}
