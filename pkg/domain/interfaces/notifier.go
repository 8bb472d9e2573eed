package interfaces

import (
	"context"

	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
)

// Notifier announces the outcome of a backup run
type Notifier interface {
	NotifyRun(ctx context.Context, run *model.BackupRun) error
}
