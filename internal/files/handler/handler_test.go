package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgellert/cloudclip/internal/blobstore"
	filesdomain "github.com/kgellert/cloudclip/internal/files"
	messagesdomain "github.com/kgellert/cloudclip/internal/messages"
	"github.com/kgellert/cloudclip/internal/messages/service"
)

type stubMessagesRepo struct{}

func (stubMessagesRepo) List(ctx context.Context, limit, offset int) ([]messagesdomain.Message, int64, error) {
	return nil, 0, nil
}
func (stubMessagesRepo) InsertText(ctx context.Context, content, deviceID string) (*messagesdomain.Message, error) {
	return nil, nil
}
func (stubMessagesRepo) Get(ctx context.Context, id int64) (*messagesdomain.Message, error) {
	return nil, messagesdomain.ErrMessageNotFound
}
func (stubMessagesRepo) Delete(ctx context.Context, id int64) error {
	return messagesdomain.ErrMessageNotFound
}
func (stubMessagesRepo) DeleteByFileID(ctx context.Context, fileID int64) (int64, error) {
	return 0, nil
}
func (stubMessagesRepo) CountByFileID(ctx context.Context, fileID int64) (int64, error) {
	return 0, nil
}
func (stubMessagesRepo) DeleteAll(ctx context.Context) (int64, error) { return 0, nil }

type stubFilesRepo struct {
	files map[string]*filesdomain.File
}

func (s stubFilesRepo) CreateWithMessage(ctx context.Context, f *filesdomain.File, deviceID string) (int64, error) {
	return 0, nil
}
func (s stubFilesRepo) GetByKey(ctx context.Context, storageKey string) (*filesdomain.File, error) {
	f, ok := s.files[storageKey]
	if !ok {
		return nil, filesdomain.ErrFileNotFound
	}
	return f, nil
}
func (s stubFilesRepo) GetByID(ctx context.Context, id int64) (*filesdomain.File, error) {
	return nil, filesdomain.ErrFileNotFound
}
func (s stubFilesRepo) List(ctx context.Context, limit, offset int) ([]filesdomain.File, int64, error) {
	return nil, 0, nil
}
func (s stubFilesRepo) IncrementDownloadCount(ctx context.Context, storageKey string) error {
	return nil
}
func (s stubFilesRepo) Delete(ctx context.Context, id int64) error { return nil }
func (s stubFilesRepo) AllStorageKeys(ctx context.Context) ([]string, error) {
	return nil, nil
}
func (s stubFilesRepo) DeleteAll(ctx context.Context) (int64, error) { return 0, nil }

type stubBlobStore struct {
	objects map[string][]byte
	etag    string
}

func (s stubBlobStore) Put(ctx context.Context, key string, body io.Reader, opts blobstore.PutOptions) error {
	return nil
}
func (s stubBlobStore) Get(ctx context.Context, key string) (*blobstore.Object, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return &blobstore.Object{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentType:   "image/png",
		ContentLength: int64(len(data)),
		ETag:          s.etag,
		LastModified:  time.Unix(1700000000, 0),
	}, nil
}
func (s stubBlobStore) Delete(ctx context.Context, key string) error { return nil }

const previewKey = "1700000000000-abc.png"

func previewRouter(t *testing.T, blobETag string) http.Handler {
	t.Helper()

	files := stubFilesRepo{files: map[string]*filesdomain.File{
		previewKey: {
			ID:           1,
			OriginalName: "photo.png",
			StorageKey:   previewKey,
			SizeBytes:    9,
			MimeType:     "image/png",
		},
	}}
	blobs := stubBlobStore{
		objects: map[string][]byte{previewKey: []byte("png bytes")},
		etag:    blobETag,
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(service.New(stubMessagesRepo{}, files, blobs, 1<<20, log), log)

	r := chi.NewRouter()
	r.Get("/api/files/preview/{key}", h.Preview())
	return r
}

func doPreview(t *testing.T, router http.Handler, ifNoneMatch string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/files/preview/"+previewKey, nil)
	if ifNoneMatch != "" {
		req.Header.Set("If-None-Match", ifNoneMatch)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestPreview_StreamsWithCacheHeaders(t *testing.T) {
	router := previewRouter(t, "blob-etag")

	rr := doPreview(t, router, "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "png bytes", rr.Body.String())
	assert.Equal(t, `"blob-etag"`, rr.Header().Get("ETag"))
	assert.Equal(t, "private, max-age=3600", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "Authorization", rr.Header().Get("Vary"))
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "inline")
}

func TestPreview_ConditionalGet(t *testing.T) {
	router := previewRouter(t, "blob-etag")

	tests := []struct {
		name        string
		ifNoneMatch string
		wantStatus  int
	}{
		{"exact match", `"blob-etag"`, http.StatusNotModified},
		{"weak tag matches", `W/"blob-etag"`, http.StatusNotModified},
		{"match inside list", `"other", "blob-etag"`, http.StatusNotModified},
		{"weak match inside list", `"other", W/"blob-etag"`, http.StatusNotModified},
		{"wildcard", `*`, http.StatusNotModified},
		{"no match", `"stale-etag"`, http.StatusOK},
		{"unquoted mismatch", `blob-etag`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doPreview(t, router, tt.ifNoneMatch)
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusNotModified {
				assert.Empty(t, rr.Body.String())
			}
		})
	}
}

func TestPreview_SynthesizedETagWhenBlobHasNone(t *testing.T) {
	router := previewRouter(t, "")

	rr := doPreview(t, router, "")
	require.Equal(t, http.StatusOK, rr.Code)

	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)

	// The synthesized tag must round-trip through a conditional request.
	rr = doPreview(t, router, etag)
	assert.Equal(t, http.StatusNotModified, rr.Code)

	rr = doPreview(t, router, "W/"+etag)
	assert.Equal(t, http.StatusNotModified, rr.Code)
}

func TestPreview_UnknownKeyIs404(t *testing.T) {
	router := previewRouter(t, "blob-etag")

	req := httptest.NewRequest(http.MethodGet, "/api/files/preview/1700000000001-nope.png", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestETagMatches(t *testing.T) {
	assert.False(t, etagMatches("", `"a"`))
	assert.True(t, etagMatches(`"a"`, `"a"`))
	assert.True(t, etagMatches(`W/"a"`, `"a"`))
	assert.True(t, etagMatches(`"b" , W/"a"`, `"a"`))
	assert.True(t, etagMatches(`*`, `"a"`))
	assert.False(t, etagMatches(`"b", "c"`, `"a"`))
}
