package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound     = goerr.New("configuration file not found")
	ErrInvalidConfig      = goerr.New("invalid configuration")
	ErrMissingCredential  = goerr.New("application credential is missing")
	ErrMissingBackupPath  = goerr.New("backup path is required")
	ErrInvalidDays        = goerr.New("days must be a positive integer")
	ErrInvalidLogLevel    = goerr.New("invalid log level")
	ErrInvalidLogFormat   = goerr.New("invalid log format")
	ErrInvalidBackend     = goerr.New("invalid repository backend")
	ErrIncompleteSettings = goerr.New("incomplete settings")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	MissingKey    = "missing"
	ValueKey      = "value"
)
