package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/cli/config"
	"github.com/secmon-lab/teamsbackup/pkg/service/archive"
	"github.com/secmon-lab/teamsbackup/pkg/usecase"
	"github.com/secmon-lab/teamsbackup/pkg/utils/errutil"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdBackup() *cli.Command {
	var fileCfg config.File
	var graphCfg config.Graph
	var backupCfg config.Backup
	var repoCfg config.Repository
	var storageCfg config.Storage
	var slackCfg config.Slack

	var flags []cli.Flag
	flags = append(flags, fileCfg.Flags()...)
	flags = append(flags, graphCfg.Flags()...)
	flags = append(flags, backupCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:      "backup",
		Aliases:   []string{"b"},
		Usage:     "Back up the chats of every directory user",
		ArgsUsage: "[BackupPath] [Days]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := logging.From(ctx)

			settings, err := fileCfg.Load()
			if err != nil {
				return err
			}

			params, err := backupCfg.Resolve(c.Args().Slice(), settings)
			if err != nil {
				return err
			}

			tokens, svc, err := graphCfg.Configure(settings)
			if err != nil {
				return err
			}

			logger.Info("Backup configuration",
				"settings", fileCfg,
				"graph", graphCfg,
				"backup", backupCfg,
				"repository", repoCfg,
				"storage", storageCfg,
				"slack", slackCfg,
			)

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					_ = errutil.Handle(ctx, err, "failed to close repository")
				}
			}()

			var writerOpts []archive.Option
			if params.SanitizeHTML {
				writerOpts = append(writerOpts, archive.WithSanitizedHTML())
			}

			uploader, err := storageCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if uploader != nil {
				defer func() {
					if err := uploader.Close(); err != nil {
						_ = errutil.Handle(ctx, err, "failed to close storage client")
					}
				}()
				writerOpts = append(writerOpts, archive.WithUploader(uploader))
			}

			ucOpts := []usecase.Option{
				usecase.WithGraph(svc, tokens),
				usecase.WithArchiveWriter(archive.New(writerOpts...)),
			}

			notifier, err := slackCfg.Configure()
			if err != nil {
				return err
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
			}

			uc := usecase.New(repo, ucOpts...)
			if uc.Backup == nil {
				return goerr.New("backup use case is not configured")
			}

			if _, err := uc.Backup.Run(ctx, usecase.BackupInput{
				BackupPath: params.BackupPath,
				Days:       params.Days,
				Users:      params.Users,
			}); err != nil {
				return errutil.Handle(ctx, err, "backup failed")
			}

			return nil
		},
	}
}
