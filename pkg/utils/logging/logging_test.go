package logging_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
)

func TestFromFallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })

	logging.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	logging.From(context.Background()).Info("hello")

	gt.String(t, buf.String()).Contains("hello")
}

func TestWithEmbedsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logging.With(context.Background(), logger)

	logging.From(ctx).Info("scoped", "user", "u1")

	gt.String(t, buf.String()).Contains("scoped")
	gt.String(t, buf.String()).Contains("user=u1")
}

func TestErrAttr(t *testing.T) {
	attr := logging.ErrAttr(errors.New("disk full"))
	gt.Value(t, attr.Key).Equal("error")
	gt.Value(t, attr.Value.String()).Equal("disk full")

	gt.Value(t, logging.ErrAttr(nil).Value.String()).Equal("")
}
