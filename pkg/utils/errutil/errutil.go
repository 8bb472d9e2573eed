package errutil

import (
	"context"
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
)

// Handle logs err together with any goerr values and stack, and forwards it to Sentry
// when a Sentry client has been initialised. It returns err unchanged.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			logging.ErrAttr(err),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, logging.ErrAttr(err))
	}

	if hub := sentry.CurrentHub(); hub != nil && hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			errCtx := sentry.Context{"message": msg}
			if ge != nil {
				errCtx["values"] = ge.Values()
			}
			scope.SetContext("goerr", errCtx)
			hub.CaptureException(err)
		})
	}

	return err
}
