package storage

import (
	"context"
	"io"
)

// NewWithWriter is exported for testing
func NewWithWriter(bucket, prefix string, newWriter func(ctx context.Context, bucket, object string) io.WriteCloser) *Uploader {
	u := &Uploader{bucket: bucket, prefix: prefix}
	u.newWriter = newWriter
	return u
}
