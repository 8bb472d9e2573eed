package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/teamsbackup/pkg/service/storage"
)

type bufferObject struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (b *bufferObject) Close() error {
	b.closed = true
	return b.closeErr
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "chat.html")
	gt.NoError(t, os.WriteFile(p, []byte(content), 0o600)).Required()
	return p
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("copies file into prefixed object", func(t *testing.T) {
		var gotBucket, gotObject string
		obj := &bufferObject{}
		u := storage.NewWithWriter("archive-bucket", "teams", func(ctx context.Context, bucket, object string) io.WriteCloser {
			gotBucket, gotObject = bucket, object
			return obj
		})

		local := writeTemp(t, "<html>chat</html>")
		gt.NoError(t, u.Upload(ctx, local, "TeamsChatBackup_2026_10_15_1200/Jane_Doe/Project_X_1.html")).Required()

		gt.Value(t, gotBucket).Equal("archive-bucket")
		gt.Value(t, gotObject).Equal("teams/TeamsChatBackup_2026_10_15_1200/Jane_Doe/Project_X_1.html")
		gt.Value(t, obj.String()).Equal("<html>chat</html>")
		gt.Bool(t, obj.closed).True()
	})

	t.Run("empty prefix keeps the name", func(t *testing.T) {
		u := storage.NewWithWriter("b", "", nil)
		gt.Value(t, u.ObjectName("a/b.html")).Equal("a/b.html")
	})

	t.Run("commit failure is reported", func(t *testing.T) {
		errCommit := errors.New("commit failed")
		u := storage.NewWithWriter("b", "p", func(ctx context.Context, bucket, object string) io.WriteCloser {
			return &bufferObject{closeErr: errCommit}
		})

		err := u.Upload(ctx, writeTemp(t, "x"), "x.html")
		gt.Error(t, err).Is(errCommit)
	})

	t.Run("missing local file", func(t *testing.T) {
		u := storage.NewWithWriter("b", "p", func(ctx context.Context, bucket, object string) io.WriteCloser {
			t.Fatal("writer must not be opened")
			return nil
		})

		err := u.Upload(ctx, filepath.Join(t.TempDir(), "missing.html"), "x.html")
		gt.Value(t, err).NotNil()
	})
}

func TestUpload_CloudStorage(t *testing.T) {
	bucket := os.Getenv("TEST_STORAGE_BUCKET")
	if bucket == "" {
		t.Skip("TEST_STORAGE_BUCKET not set")
	}

	ctx := context.Background()
	u, err := storage.New(ctx, bucket, "teamsbackup-test/"+time.Now().UTC().Format("20060102150405"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() { gt.NoError(t, u.Close()) })

	gt.NoError(t, u.Upload(ctx, writeTemp(t, "<html>test</html>"), "chat.html"))
}
