package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/domain/interfaces"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
	"github.com/secmon-lab/teamsbackup/pkg/service/graph"
	"github.com/secmon-lab/teamsbackup/pkg/utils/errutil"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
)

// BackupInput is the resolved request of one backup run
type BackupInput struct {
	BackupPath string
	Days       int
	// Users selects users by id or userPrincipalName. Empty selects every user.
	Users []string
}

// BackupUseCase walks users, their chats and the chats' recent messages one request at a
// time and writes every chat into the archive. A failure aborts the run and keeps what
// was already written.
type BackupUseCase struct {
	graph    graph.Service
	tokens   graph.TokenSource
	writer   interfaces.ArchiveWriter
	repo     interfaces.Repository
	notifier interfaces.Notifier
	now      func() time.Time
}

type BackupOption func(*BackupUseCase)

func WithBackupNotifier(n interfaces.Notifier) BackupOption {
	return func(uc *BackupUseCase) {
		uc.notifier = n
	}
}

func WithBackupClock(now func() time.Time) BackupOption {
	return func(uc *BackupUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

func NewBackupUseCase(svc graph.Service, tokens graph.TokenSource, writer interfaces.ArchiveWriter, repo interfaces.Repository, opts ...BackupOption) *BackupUseCase {
	uc := &BackupUseCase{
		graph:  svc,
		tokens: tokens,
		writer: writer,
		repo:   repo,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run executes a full backup and returns its manifest entry. The returned run is non-nil
// whenever the input was valid, also when the backup failed.
func (uc *BackupUseCase) Run(ctx context.Context, input BackupInput) (*model.BackupRun, error) {
	if input.BackupPath == "" {
		return nil, goerr.Wrap(ErrInvalidBackupInput, "backup path is empty")
	}
	if input.Days <= 0 {
		return nil, goerr.Wrap(ErrInvalidBackupInput, "days must be positive", goerr.V(DaysKey, input.Days))
	}

	startedAt := uc.now().UTC()
	run := &model.BackupRun{
		ID:        model.NewRunID(),
		Days:      input.Days,
		Status:    model.RunStatusRunning,
		StartedAt: startedAt,
	}

	logger := logging.From(ctx).With(model.RunIDKey, run.ID)
	ctx = logging.With(ctx, logger)

	logger.Info("Starting backup",
		BackupPathKey, input.BackupPath,
		DaysKey, input.Days,
		SelectorsKey, input.Users)
	uc.recordRun(ctx, run)

	// the window is fixed once per run so every chat shares the same cutoff
	since := startedAt.Add(-time.Duration(input.Days) * 24 * time.Hour)
	err := uc.backup(ctx, run, input, since)

	run.Finish(uc.now().UTC(), err)
	uc.recordRun(ctx, run)
	uc.notify(ctx, run)

	if err != nil {
		return run, err
	}

	logger.Info("Backup completed!",
		"root", run.RootDir,
		"users", run.UserCount,
		"chats", run.ChatCount,
		"messages", run.MessageCount,
		"elapsed", run.FinishedAt.Sub(run.StartedAt))
	return run, nil
}

func (uc *BackupUseCase) backup(ctx context.Context, run *model.BackupRun, input BackupInput, since time.Time) error {
	logger := logging.From(ctx)

	if _, err := uc.tokens.Token(ctx); err != nil {
		return goerr.Wrap(err, "failed to acquire access token")
	}

	logger.Info("Fetching users...")
	users, err := uc.graph.ListUsers(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch users")
	}
	logger.Info("Fetched users", "count", len(users))

	targets, err := selectUsers(ctx, users, input.Users)
	if err != nil {
		return err
	}

	root, err := uc.writer.PrepareRoot(ctx, input.BackupPath, run.StartedAt)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare backup directory", goerr.V(BackupPathKey, input.BackupPath))
	}
	run.RootDir = root
	uc.recordRun(ctx, run)

	for _, user := range targets {
		if err := uc.backupUser(ctx, run, root, user, since); err != nil {
			return err
		}
		run.UserCount++
	}

	return nil
}

func (uc *BackupUseCase) backupUser(ctx context.Context, run *model.BackupRun, root string, user *model.User, since time.Time) error {
	logger := logging.From(ctx).With(model.UserIDKey, user.ID)
	logger.Info("Processing user", "name", user.Name())

	userDir, err := uc.writer.PrepareUser(ctx, root, user)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare user directory", goerr.V(model.UserIDKey, user.ID))
	}

	logger.Info("Fetching chats for user...")
	chats, err := uc.graph.ListChats(ctx, user.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch chats", goerr.V(model.UserIDKey, user.ID))
	}
	logger.Info("Fetched user chats", "count", len(chats))

	total := len(chats)
	for i, chat := range chats {
		seq := i + 1

		logger.Info("Fetching messages for chat...", model.ChatIDKey, chat.ID, "sequence", seq, "total", total)
		messages, err := uc.graph.ListChatMessages(ctx, chat.ID, since)
		if err != nil {
			return goerr.Wrap(err, "failed to fetch chat messages",
				goerr.V(model.UserIDKey, user.ID),
				goerr.V(model.ChatIDKey, chat.ID))
		}
		logger.Info("Fetched chat messages", model.ChatIDKey, chat.ID, "count", len(messages))

		artifact, err := uc.writer.WriteChat(ctx, userDir, chat, messages, seq, total)
		if err != nil {
			return goerr.Wrap(err, "failed to write chat",
				goerr.V(model.UserIDKey, user.ID),
				goerr.V(model.ChatIDKey, chat.ID))
		}

		artifact.RunID = run.ID
		artifact.UserID = user.ID
		if err := uc.repo.BackupRun().PutArtifact(ctx, artifact); err != nil {
			_ = errutil.Handle(ctx, err, "failed to record artifact")
		}

		run.ChatCount++
		run.MessageCount += len(messages)
	}

	return nil
}

// selectUsers keeps the users matching any selector, in listing order. An empty selector
// list keeps every user.
func selectUsers(ctx context.Context, users []*model.User, selectors []string) ([]*model.User, error) {
	if len(selectors) == 0 {
		return users, nil
	}

	matched := make(map[string]bool, len(selectors))
	var targets []*model.User
	for _, user := range users {
		hit := false
		for _, selector := range selectors {
			if user.Matches(selector) {
				matched[selector] = true
				hit = true
			}
		}
		if hit {
			targets = append(targets, user)
		}
	}

	for _, selector := range selectors {
		if !matched[selector] {
			logging.From(ctx).Warn("No user matches selector", "selector", selector)
		}
	}

	if len(targets) == 0 {
		return nil, goerr.Wrap(ErrNoTargetUsers, "no user to back up", goerr.V(SelectorsKey, selectors))
	}
	return targets, nil
}

// recordRun writes the manifest entry. The manifest is an audit trail, so a storage
// failure is reported without failing the backup.
func (uc *BackupUseCase) recordRun(ctx context.Context, run *model.BackupRun) {
	if err := uc.repo.BackupRun().PutRun(ctx, run); err != nil {
		_ = errutil.Handle(ctx, err, "failed to record backup run")
	}
}

func (uc *BackupUseCase) notify(ctx context.Context, run *model.BackupRun) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.NotifyRun(ctx, run); err != nil {
		_ = errutil.Handle(ctx, err, "failed to notify backup run")
	}
}
