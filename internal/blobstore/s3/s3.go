package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kgellert/cloudclip/internal/blobstore"
)

// Store implements blobstore.Store on an S3-compatible bucket.
type Store struct {
	bucket string
	client *awss3.Client
}

func New(bucket string, client *awss3.Client) *Store {
	return &Store{bucket: bucket, client: client}
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, opts blobstore.PutOptions) error {
	const op = "blobstore.s3.Put"

	in := &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if opts.ContentDisposition != "" {
		in.ContentDisposition = aws.String(opts.ContentDisposition)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("%s: put %q: %w", op, key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (*blobstore.Object, error) {
	const op = "blobstore.s3.Get"

	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("%s: get %q: %w", op, key, err)
	}

	return &blobstore.Object{
		Body:          out.Body,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: aws.ToInt64(out.ContentLength),
		ETag:          strings.Trim(aws.ToString(out.ETag), `"`),
		LastModified:  aws.ToTime(out.LastModified),
	}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "blobstore.s3.Delete"

	if _, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("%s: delete %q: %w", op, key, err)
	}

	return nil
}
