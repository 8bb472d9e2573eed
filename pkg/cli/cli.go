package cli

import (
	"context"

	"github.com/secmon-lab/teamsbackup/pkg/cli/config"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var envFile config.EnvFile
	var closers []func()

	flags := append(envFile.Flags(), loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "teamsbackup",
		Usage:   "Back up Microsoft Teams chats to HTML files",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := envFile.Configure(); err != nil {
				return ctx, err
			}

			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Debug("Starting teamsbackup",
				"version", version,
				"logger", loggerCfg,
				"sentry", sentryCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				if closers[i] != nil {
					closers[i]()
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdBackup(),
			cmdCheck(),
			cmdRuns(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", logging.ErrAttr(err))
		return err
	}

	return nil
}
