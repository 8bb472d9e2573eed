package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrInvalidBackupInput = errors.New("invalid backup input")
	ErrNoTargetUsers      = errors.New("no user matches the requested selection")
	ErrRunNotFound        = errors.New("backup run not found")
)

// Context keys for error values
const (
	BackupPathKey = "backup_path"
	DaysKey       = "days"
	SelectorsKey  = "selectors"
)
