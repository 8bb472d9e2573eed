package config

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// BackupParams is the resolved input of one backup run
type BackupParams struct {
	BackupPath   string
	Days         int
	Users        []string
	SanitizeHTML bool
}

// Backup holds the CLI flags of the backup command. The backup path and the day count
// may also be given as positional arguments, which take precedence.
type Backup struct {
	days         int
	users        []string
	sanitizeHTML bool
}

func (x *Backup) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "days",
			Aliases:     []string{"d"},
			Usage:       "Recency window in days. Falls back to BackupConfig.Days",
			Category:    "Backup",
			Destination: &x.days,
			Sources:     cli.EnvVars("TEAMSBACKUP_DAYS"),
		},
		&cli.StringSliceFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "Back up only this user (id or userPrincipalName, repeatable). Falls back to BackupConfig.Users",
			Category:    "Backup",
			Destination: &x.users,
			Sources:     cli.EnvVars("TEAMSBACKUP_USERS"),
		},
		&cli.BoolFlag{
			Name:        "sanitize-html",
			Usage:       "Strip active content from message bodies before writing",
			Category:    "Backup",
			Destination: &x.sanitizeHTML,
			Sources:     cli.EnvVars("TEAMSBACKUP_SANITIZE_HTML"),
		},
	}
}

func (x Backup) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("days", x.days),
		slog.Any("users", x.users),
		slog.Bool("sanitize_html", x.sanitizeHTML),
	)
}

// Resolve merges positional arguments (<BackupPath> [Days]), flags and settings, in that
// order of precedence
func (x *Backup) Resolve(args []string, settings *Settings) (*BackupParams, error) {
	if settings == nil {
		settings = &Settings{}
	}

	params := &BackupParams{
		BackupPath:   settings.Backup.BackupPath,
		Days:         settings.Backup.Days,
		Users:        settings.Backup.Users,
		SanitizeHTML: x.sanitizeHTML,
	}

	if x.days != 0 {
		params.Days = x.days
	}
	if len(x.users) > 0 {
		params.Users = x.users
	}

	if len(args) > 2 {
		return nil, goerr.Wrap(ErrInvalidConfig, "too many arguments", goerr.V("args", args))
	}
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		params.BackupPath = args[0]
	}
	if len(args) > 1 {
		days, err := strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidDays, "day count argument is not a number", goerr.V(ValueKey, args[1]))
		}
		params.Days = days
	}

	if params.BackupPath == "" {
		return nil, goerr.Wrap(ErrMissingBackupPath, "give <BackupPath> as the first argument or set BackupConfig.BackupPath")
	}
	if params.Days <= 0 {
		return nil, goerr.Wrap(ErrInvalidDays, "give [Days] as the second argument, --days or BackupConfig.Days",
			goerr.V(ValueKey, params.Days))
	}

	return params, nil
}
