package blobstore

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("blob not found")

// PutOptions carry the HTTP metadata stored alongside the object bytes.
type PutOptions struct {
	ContentType        string
	ContentDisposition string
}

// Object is a fetched blob. The caller owns Body and must close it.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	ETag          string
	LastModified  time.Time
}

// Store is opaque binary storage keyed by an application-generated
// string. It holds no metadata beyond what Put attaches; the relational
// layer owns everything else.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, opts PutOptions) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}
