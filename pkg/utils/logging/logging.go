package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

var (
	defaultLogger      = slog.New(slog.NewTextHandler(io.Discard, nil))
	defaultLoggerMutex sync.RWMutex
)

// SetDefault replaces the process wide logger. It is called once by config.Logger.
func SetDefault(logger *slog.Logger) {
	defaultLoggerMutex.Lock()
	defer defaultLoggerMutex.Unlock()
	defaultLogger = logger
}

// Default returns the process wide logger
func Default() *slog.Logger {
	defaultLoggerMutex.RLock()
	defer defaultLoggerMutex.RUnlock()
	return defaultLogger
}

type ctxLoggerKey struct{}

// With embeds logger into ctx
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger embedded in ctx, or Default() if there is none
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// ErrAttr makes a slog attribute for an error value
func ErrAttr(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
