package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/domain/interfaces"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
)

type backupRunRepository struct {
	mu        sync.RWMutex
	runs      map[model.RunID]*model.BackupRun
	artifacts map[model.RunID][]*model.Artifact
}

func newBackupRunRepository() *backupRunRepository {
	return &backupRunRepository{
		runs:      make(map[model.RunID]*model.BackupRun),
		artifacts: make(map[model.RunID][]*model.Artifact),
	}
}

func copyRun(r *model.BackupRun) *model.BackupRun {
	copied := *r
	return &copied
}

func copyArtifact(a *model.Artifact) *model.Artifact {
	copied := *a
	return &copied
}

func (r *backupRunRepository) PutRun(ctx context.Context, run *model.BackupRun) error {
	if run.ID == "" {
		return goerr.Wrap(model.ErrMissingIdentifier, "run id is empty")
	}
	if err := run.Status.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = copyRun(run)
	return nil
}

func (r *backupRunRepository) GetRun(ctx context.Context, id model.RunID) (*model.BackupRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "backup run not found", goerr.V(model.RunIDKey, id))
	}
	return copyRun(run), nil
}

func (r *backupRunRepository) ListRuns(ctx context.Context, limit int) ([]*model.BackupRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*model.BackupRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, copyRun(run))
	}

	// Sort by StartedAt descending
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r *backupRunRepository) PutArtifact(ctx context.Context, artifact *model.Artifact) error {
	if artifact.RunID == "" {
		return goerr.Wrap(model.ErrMissingIdentifier, "artifact run id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.artifacts[artifact.RunID] = append(r.artifacts[artifact.RunID], copyArtifact(artifact))
	return nil
}

func (r *backupRunRepository) ListArtifacts(ctx context.Context, runID model.RunID) ([]*model.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.artifacts[runID]
	artifacts := make([]*model.Artifact, 0, len(stored))
	for _, a := range stored {
		artifacts = append(artifacts, copyArtifact(a))
	}

	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].WrittenAt.Before(artifacts[j].WrittenAt)
	})
	return artifacts, nil
}
