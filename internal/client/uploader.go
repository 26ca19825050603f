package client

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// ErrTooLarge marks a file rejected by the local size check.
var ErrTooLarge = errors.New("file is too large")

// uploadBatchSize caps how many uploads run in parallel. Batches run to
// completion before the next one starts so a pile of large files cannot
// saturate the uplink.
const uploadBatchSize = 3

// UploadItem is one queued file.
type UploadItem struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileItem wraps a file on disk as an UploadItem.
func FileItem(path string) (UploadItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return UploadItem{}, err
	}

	return UploadItem{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// UploadCallbacks report pipeline progress. All callbacks are optional;
// OnProgress may be called concurrently from uploads in the same batch.
type UploadCallbacks struct {
	OnProgress func(name string, sent, total int64)
	OnResult   func(name string, err error)
	// OnRefresh fires once after the run when at least one upload
	// succeeded, so the caller can reload the timeline.
	OnRefresh func()
	// OnDone always fires last with the final tallies.
	OnDone func(succeeded, failed int)
}

// Uploader pushes queued files through the API client in bounded
// parallel batches. Files over maxFileSize are rejected locally before
// any network call; maxFileSize 0 disables the local check.
type Uploader struct {
	client      *Client
	maxFileSize int64
	cb          UploadCallbacks
}

func NewUploader(client *Client, maxFileSize int64, cb UploadCallbacks) *Uploader {
	return &Uploader{client: client, maxFileSize: maxFileSize, cb: cb}
}

// Run uploads every item and returns the number that succeeded and
// failed. One failed upload never aborts the rest of the queue.
func (u *Uploader) Run(ctx context.Context, items []UploadItem) (succeeded, failed int) {
	var okCount, failCount atomic.Int64

	if u.maxFileSize > 0 {
		kept := make([]UploadItem, 0, len(items))
		for _, item := range items {
			if item.Size > u.maxFileSize {
				failCount.Add(1)
				if u.cb.OnResult != nil {
					u.cb.OnResult(item.Name, ErrTooLarge)
				}
				continue
			}
			kept = append(kept, item)
		}
		items = kept
	}

	for start := 0; start < len(items); start += uploadBatchSize {
		end := start + uploadBatchSize
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for _, item := range items[start:end] {
			wg.Add(1)
			go func(item UploadItem) {
				defer wg.Done()

				if err := u.uploadOne(ctx, item); err != nil {
					failCount.Add(1)
					if u.cb.OnResult != nil {
						u.cb.OnResult(item.Name, err)
					}
					return
				}

				okCount.Add(1)
				if u.cb.OnResult != nil {
					u.cb.OnResult(item.Name, nil)
				}
			}(item)
		}
		wg.Wait()
	}

	succeeded = int(okCount.Load())
	failed = int(failCount.Load())

	if succeeded > 0 && u.cb.OnRefresh != nil {
		u.cb.OnRefresh()
	}
	if u.cb.OnDone != nil {
		u.cb.OnDone(succeeded, failed)
	}

	return succeeded, failed
}

func (u *Uploader) uploadOne(ctx context.Context, item UploadItem) error {
	body, err := item.Open()
	if err != nil {
		return err
	}
	defer body.Close()

	var progress func(sent int64)
	if u.cb.OnProgress != nil {
		progress = func(sent int64) {
			u.cb.OnProgress(item.Name, sent, item.Size)
		}
	}

	_, err = u.client.UploadFile(ctx, item.Name, item.Size, body, progress)

	return err
}
