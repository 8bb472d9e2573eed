package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
)

// ArchiveWriter renders chats into the backup directory tree
type ArchiveWriter interface {
	// PrepareRoot creates the timestamped run directory below basePath and returns its path
	PrepareRoot(ctx context.Context, basePath string, ts time.Time) (string, error)

	// PrepareUser creates the directory of user below root and returns its path
	PrepareUser(ctx context.Context, root string, user *model.User) (string, error)

	// WriteChat writes one archive file for chat. seq is the 1-based position of the chat
	// in the user's listing and total the number of chats of the user.
	WriteChat(ctx context.Context, userDir string, chat *model.Chat, messages []*model.Message, seq, total int) (*model.Artifact, error)
}

// Uploader copies a written archive file to remote storage. name is the path of the file
// relative to the backup base path, with forward slashes.
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) error
}
