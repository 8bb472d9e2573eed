package storage

import (
	"context"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/domain/interfaces"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
	"github.com/secmon-lab/teamsbackup/pkg/utils/safe"
)

const archiveContentType = "text/html; charset=utf-8"

type objectWriterFunc func(ctx context.Context, bucket, object string) io.WriteCloser

// Uploader copies archive files into a Cloud Storage bucket
type Uploader struct {
	client    *storage.Client
	bucket    string
	prefix    string
	newWriter objectWriterFunc
}

var _ interfaces.Uploader = &Uploader{}

// New creates an Uploader with application default credentials. Objects are named
// <prefix>/<name>.
func New(ctx context.Context, bucket, prefix string) (*Uploader, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	u := &Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
	u.newWriter = u.gcsWriter
	return u, nil
}

func (u *Uploader) gcsWriter(ctx context.Context, bucket, object string) io.WriteCloser {
	w := u.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = archiveContentType
	return w
}

// ObjectName returns the object name used for name
func (u *Uploader) ObjectName(name string) string {
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

func (u *Uploader) Upload(ctx context.Context, localPath, name string) error {
	object := u.ObjectName(name)

	f, err := os.Open(localPath)
	if err != nil {
		return goerr.Wrap(err, "failed to open archive file", goerr.V("path", localPath))
	}
	defer safe.Close(ctx, f)

	w := u.newWriter(ctx, u.bucket, object)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object",
			goerr.V("bucket", u.bucket),
			goerr.V("object", object))
	}
	// the object is committed on Close
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit object",
			goerr.V("bucket", u.bucket),
			goerr.V("object", object))
	}

	logging.From(ctx).Debug("Uploaded archive", "bucket", u.bucket, "object", object)
	return nil
}

func (u *Uploader) Close() error {
	if u.client != nil {
		return u.client.Close()
	}
	return nil
}
