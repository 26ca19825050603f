package client

import (
	"context"
	"sync"
)

const (
	previewCacheCap    = 50
	previewConcurrency = 3
)

type previewState int

const (
	previewIdle previewState = iota
	previewQueued
	previewLoading
	previewLoaded
	previewFailed
)

// PreviewFetcher is the API surface PreviewLoader needs; satisfied by
// *Client.
type PreviewFetcher interface {
	FetchPreview(ctx context.Context, storageKey string) ([]byte, error)
}

// PreviewLoader fills previews on demand as entries become visible.
// Loads are deduplicated, run at most previewConcurrency at a time, and
// land in a bounded FIFO cache. A key that failed stays failed until
// Retry so scrolling cannot hammer a broken file.
type PreviewLoader struct {
	fetcher  PreviewFetcher
	cache    *previewCache
	onLoaded func(key string, data []byte, err error)

	mu     sync.Mutex
	state  map[string]previewState
	queue  []string
	active int
}

func NewPreviewLoader(fetcher PreviewFetcher, onLoaded func(key string, data []byte, err error)) *PreviewLoader {
	return &PreviewLoader{
		fetcher:  fetcher,
		cache:    newPreviewCache(previewCacheCap),
		onLoaded: onLoaded,
		state:    make(map[string]previewState),
	}
}

// Visible reports that an entry scrolled into view. Cached previews are
// delivered synchronously; everything else joins the load queue.
func (l *PreviewLoader) Visible(ctx context.Context, key string) {
	if data, ok := l.cache.Get(key); ok {
		l.onLoaded(key, data, nil)
		return
	}

	l.mu.Lock()
	switch l.state[key] {
	case previewQueued, previewLoading, previewFailed:
		l.mu.Unlock()
		return
	}
	l.state[key] = previewQueued
	l.queue = append(l.queue, key)
	l.mu.Unlock()

	l.pump(ctx)
}

// Retry clears the failed mark so the next Visible call loads again.
func (l *PreviewLoader) Retry(ctx context.Context, key string) {
	l.mu.Lock()
	if l.state[key] == previewFailed {
		l.state[key] = previewIdle
	}
	l.mu.Unlock()

	l.Visible(ctx, key)
}

// Cached reports whether a preview is already in the cache.
func (l *PreviewLoader) Cached(key string) bool {
	_, ok := l.cache.Get(key)
	return ok
}

func (l *PreviewLoader) pump(ctx context.Context) {
	for {
		l.mu.Lock()
		if l.active >= previewConcurrency || len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		key := l.queue[0]
		l.queue = l.queue[1:]
		l.state[key] = previewLoading
		l.active++
		l.mu.Unlock()

		go l.load(ctx, key)
	}
}

func (l *PreviewLoader) load(ctx context.Context, key string) {
	data, err := l.fetcher.FetchPreview(ctx, key)

	l.mu.Lock()
	l.active--
	if err != nil {
		l.state[key] = previewFailed
	} else {
		l.state[key] = previewLoaded
	}
	l.mu.Unlock()

	if err == nil {
		l.cache.Put(key, data)
	}

	l.onLoaded(key, data, err)

	// The freed slot may unblock queued keys.
	l.pump(ctx)
}
