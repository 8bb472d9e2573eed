package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/cli/config"
	"github.com/secmon-lab/teamsbackup/pkg/service/graph"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdCheck() *cli.Command {
	var fileCfg config.File
	var graphCfg config.Graph

	return &cli.Command{
		Name:  "check",
		Usage: "Acquire an access token and report its application permissions",
		Flags: append(fileCfg.Flags(), graphCfg.Flags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			settings, err := fileCfg.Load()
			if err != nil {
				return err
			}

			tokens, _, err := graphCfg.Configure(settings)
			if err != nil {
				return err
			}

			cred, err := tokens.Credential(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to acquire access token")
			}

			claims, err := graph.InspectToken(cred.AccessToken)
			if err != nil {
				return err
			}

			logger.Info("Access token acquired",
				"tenant_id", claims.TenantID,
				"app_id", claims.AppID,
				"roles", claims.Roles,
				"expires_at", claims.ExpiresAt,
				"cache_expires_at", cred.ExpiresAt,
			)

			if missing := claims.MissingRoles(graph.RequiredRoles...); len(missing) > 0 {
				logger.Warn("Token lacks permissions required for a full backup", "missing", missing)
				return nil
			}

			logger.Info("Token carries every required permission")
			return nil
		},
	}
}
