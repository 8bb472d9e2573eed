package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = goerr.New("not found")

// Repository defines the interface for the run manifest persistence
type Repository interface {
	BackupRun() BackupRunRepository
	Close() error
}

// BackupRunRepository stores the audit trail of backup runs. It is written by the backup
// and never read back by the fetch path.
type BackupRunRepository interface {
	// PutRun creates or replaces a run
	PutRun(ctx context.Context, run *model.BackupRun) error

	// GetRun returns ErrNotFound when the run does not exist
	GetRun(ctx context.Context, id model.RunID) (*model.BackupRun, error)

	// ListRuns returns up to limit runs ordered by StartedAt descending. A non-positive
	// limit returns every run.
	ListRuns(ctx context.Context, limit int) ([]*model.BackupRun, error)

	// PutArtifact records one written archive file of a run
	PutArtifact(ctx context.Context, artifact *model.Artifact) error

	// ListArtifacts returns the artifacts of a run ordered by WrittenAt ascending
	ListArtifacts(ctx context.Context, runID model.RunID) ([]*model.Artifact, error)
}
