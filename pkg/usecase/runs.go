package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/domain/interfaces"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
)

// RunsUseCase reads the run manifest
type RunsUseCase struct {
	repo interfaces.Repository
}

func NewRunsUseCase(repo interfaces.Repository) *RunsUseCase {
	return &RunsUseCase{repo: repo}
}

// List returns the most recent runs first
func (uc *RunsUseCase) List(ctx context.Context, limit int) ([]*model.BackupRun, error) {
	runs, err := uc.repo.BackupRun().ListRuns(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list backup runs")
	}
	return runs, nil
}

// Get returns a run and the files it wrote
func (uc *RunsUseCase) Get(ctx context.Context, id model.RunID) (*model.BackupRun, []*model.Artifact, error) {
	run, err := uc.repo.BackupRun().GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, nil, goerr.Wrap(ErrRunNotFound, "backup run not found", goerr.V(model.RunIDKey, id))
		}
		return nil, nil, goerr.Wrap(err, "failed to get backup run", goerr.V(model.RunIDKey, id))
	}

	artifacts, err := uc.repo.BackupRun().ListArtifacts(ctx, id)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to list artifacts", goerr.V(model.RunIDKey, id))
	}

	return run, artifacts, nil
}
