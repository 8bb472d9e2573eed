package config

import (
	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// EnvFile loads environment variables from a dotenv file. It is a global flag so that the
// variables are in place before subcommand flags read their TEAMSBACKUP_* sources.
type EnvFile struct {
	path string
}

func (x *EnvFile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "env-file",
			Usage:       "Load environment variables from a dotenv file. Already set variables win.",
			Category:    "Config",
			Destination: &x.path,
			Sources:     cli.EnvVars("TEAMSBACKUP_ENV_FILE"),
		},
	}
}

func (x *EnvFile) Configure() error {
	if x.path == "" {
		return nil
	}
	if err := godotenv.Load(x.path); err != nil {
		return goerr.Wrap(err, "failed to load env file", goerr.V(ConfigPathKey, x.path))
	}
	return nil
}
