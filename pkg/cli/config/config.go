package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Settings is the content of the TOML settings file. Section and key names follow the
// layout of the settings file the tool has always used.
type Settings struct {
	Azure  AzureSettings  `toml:"AzureConfig"`
	Backup BackupSettings `toml:"BackupConfig"`
}

// AzureSettings holds the application identity
type AzureSettings struct {
	ClientID     string `toml:"ClientId"`
	TenantID     string `toml:"TenantId"`
	ClientSecret string `toml:"ClientSecret" masq:"secret"`
}

// BackupSettings holds the backup defaults
type BackupSettings struct {
	BackupPath string   `toml:"BackupPath"`
	Days       int      `toml:"Days"`
	Users      []string `toml:"Users"`
}

// LoadSettings reads a TOML settings file. An empty path returns empty settings.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return &Settings{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "settings file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read settings file", goerr.V(ConfigPathKey, path))
	}

	var settings Settings
	if err := toml.Unmarshal(data, &settings); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse settings file",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()))
	}

	if settings.Backup.Days < 0 {
		return nil, goerr.Wrap(ErrInvalidDays, "negative Days in settings file",
			goerr.V(ConfigPathKey, path),
			goerr.V(ValueKey, settings.Backup.Days))
	}

	return &settings, nil
}

// File holds the CLI flag pointing at the settings file
type File struct {
	path string
}

func (x *File) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML settings file ([AzureConfig] and [BackupConfig] sections)",
			Category:    "Config",
			Destination: &x.path,
			Sources:     cli.EnvVars("TEAMSBACKUP_CONFIG"),
		},
	}
}

// Load reads the configured settings file
func (x *File) Load() (*Settings, error) {
	return LoadSettings(x.path)
}

func (x File) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", x.path))
}
