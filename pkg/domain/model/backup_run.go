package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// RunID is a UUID-based identifier for a backup run
type RunID string

// NewRunID generates a new UUID v4 RunID
func NewRunID() RunID {
	return RunID(uuid.New().String())
}

func (id RunID) String() string {
	return string(id)
}

// RunStatus is the outcome of a backup run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Validate checks that s is a known status
func (s RunStatus) Validate() error {
	switch s {
	case RunStatusRunning, RunStatusSucceeded, RunStatusFailed:
		return nil
	}
	return goerr.Wrap(ErrInvalidRunStatus, "unknown run status", goerr.V("status", string(s)))
}

// BackupRun is the manifest entry of one backup invocation
type BackupRun struct {
	ID           RunID
	RootDir      string
	Days         int
	Status       RunStatus
	UserCount    int
	ChatCount    int
	MessageCount int
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Finish marks the run as done at now. A non-nil err marks it failed.
func (r *BackupRun) Finish(now time.Time, err error) {
	r.FinishedAt = now
	if err != nil {
		r.Status = RunStatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunStatusSucceeded
}

// Artifact is one archive file written by a run
type Artifact struct {
	RunID        RunID
	UserID       UserID
	ChatID       ChatID
	Sequence     int
	Path         string
	MessageCount int
	WrittenAt    time.Time
}
