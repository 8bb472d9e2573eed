package cli

import (
	"context"

	"github.com/secmon-lab/teamsbackup/pkg/cli/config"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
	"github.com/secmon-lab/teamsbackup/pkg/usecase"
	"github.com/secmon-lab/teamsbackup/pkg/utils/errutil"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdRuns() *cli.Command {
	var repoCfg config.Repository
	var limit int
	var runID string

	flags := append(repoCfg.Flags(),
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of runs to list (0 lists all)",
			Value:       20,
			Destination: &limit,
		},
		&cli.StringFlag{
			Name:        "run-id",
			Usage:       "Show the archive files of one run",
			Destination: &runID,
		},
	)

	return &cli.Command{
		Name:  "runs",
		Usage: "List recorded backup runs",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					_ = errutil.Handle(ctx, err, "failed to close repository")
				}
			}()

			uc := usecase.New(repo)

			if runID != "" {
				run, artifacts, err := uc.Runs.Get(ctx, model.RunID(runID))
				if err != nil {
					return err
				}
				logRun(ctx, run)
				for _, a := range artifacts {
					logger.Info("Artifact",
						model.UserIDKey, a.UserID,
						model.ChatIDKey, a.ChatID,
						"sequence", a.Sequence,
						"path", a.Path,
						"messages", a.MessageCount,
						"written_at", a.WrittenAt,
					)
				}
				return nil
			}

			runs, err := uc.Runs.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				logger.Info("No backup runs recorded")
				return nil
			}
			for _, run := range runs {
				logRun(ctx, run)
			}
			return nil
		},
	}
}

func logRun(ctx context.Context, run *model.BackupRun) {
	logging.From(ctx).Info("Backup run",
		model.RunIDKey, run.ID,
		"status", run.Status,
		"started_at", run.StartedAt,
		"finished_at", run.FinishedAt,
		"root", run.RootDir,
		"users", run.UserCount,
		"chats", run.ChatCount,
		"messages", run.MessageCount,
		"error", run.Error,
	)
}
