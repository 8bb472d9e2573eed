package usecase

import (
	"time"

	"github.com/secmon-lab/teamsbackup/pkg/domain/interfaces"
	"github.com/secmon-lab/teamsbackup/pkg/service/graph"
)

type UseCases struct {
	repo     interfaces.Repository
	graph    graph.Service
	tokens   graph.TokenSource
	writer   interfaces.ArchiveWriter
	notifier interfaces.Notifier
	now      func() time.Time

	Backup *BackupUseCase
	Runs   *RunsUseCase
}

type Option func(*UseCases)

// WithGraph enables the backup use case
func WithGraph(svc graph.Service, tokens graph.TokenSource) Option {
	return func(uc *UseCases) {
		uc.graph = svc
		uc.tokens = tokens
	}
}

func WithArchiveWriter(w interfaces.ArchiveWriter) Option {
	return func(uc *UseCases) {
		uc.writer = w
	}
}

func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Runs = NewRunsUseCase(repo)
	if uc.graph != nil && uc.tokens != nil && uc.writer != nil {
		uc.Backup = NewBackupUseCase(uc.graph, uc.tokens, uc.writer, repo,
			WithBackupNotifier(uc.notifier),
			WithBackupClock(uc.now),
		)
	}

	return uc
}
