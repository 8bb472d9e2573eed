package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/service/storage"
	"github.com/urfave/cli/v3"
)

// Storage holds the optional Cloud Storage destination of archive copies
type Storage struct {
	bucket string
	prefix string
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Also upload every archive file to this Cloud Storage bucket",
			Category:    "Storage",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("TEAMSBACKUP_GCS_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix for uploaded archive files",
			Category:    "Storage",
			Destination: &x.prefix,
			Sources:     cli.EnvVars("TEAMSBACKUP_GCS_PREFIX"),
		},
	}
}

func (x Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// IsEnabled reports whether a bucket is configured
func (x *Storage) IsEnabled() bool {
	return x.bucket != ""
}

// Configure returns nil when no bucket is configured
func (x *Storage) Configure(ctx context.Context) (*storage.Uploader, error) {
	if !x.IsEnabled() {
		return nil, nil
	}

	uploader, err := storage.New(ctx, x.bucket, x.prefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure archive upload")
	}
	return uploader, nil
}
