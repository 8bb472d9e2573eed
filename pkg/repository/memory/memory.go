package memory

import (
	"github.com/secmon-lab/teamsbackup/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps the run manifest for the lifetime of the process
type Memory struct {
	backupRun *backupRunRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		backupRun: newBackupRunRepository(),
	}
}

func (m *Memory) BackupRun() interfaces.BackupRunRepository {
	return m.backupRun
}

func (m *Memory) Close() error {
	return nil
}
