package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
)

// Close closes closer and logs a failure instead of returning it. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", logging.ErrAttr(err))
	}
}

// Drain discards the rest of r so the underlying HTTP connection can be reused
func Drain(ctx context.Context, r io.Reader) {
	if r == nil {
		return
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		logging.From(ctx).Debug("Failed to drain body", logging.ErrAttr(err))
	}
}
