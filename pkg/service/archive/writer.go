package archive

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/secmon-lab/teamsbackup/pkg/domain/interfaces"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
)

const (
	// EmptyChatPlaceholder is the whole content of the file written for a chat without
	// qualifying messages
	EmptyChatPlaceholder = "No message for this chat"

	// RootDirPrefix and RootDirTimeFormat build the per-run directory name
	RootDirPrefix     = "TeamsChatBackup_"
	RootDirTimeFormat = "2006_01_02_1504"

	dirPerm  = 0o755
	filePerm = 0o644
)

//go:embed templates/chat.html
var chatTemplateText string

var chatTemplate = template.Must(template.New("chat").Parse(chatTemplateText))

type chatView struct {
	Name     string
	Sequence int
	Total    int
	Messages []messageView
}

type messageView struct {
	Sender    string
	Timestamp string
	Content   template.HTML
}

// Writer writes chats as HTML files into a local directory tree
type Writer struct {
	policy   *bluemonday.Policy
	uploader interfaces.Uploader
	now      func() time.Time

	mu        sync.Mutex
	userNames map[string]map[string]struct{}
}

var _ interfaces.ArchiveWriter = &Writer{}

// Option configures the Writer
type Option func(*Writer)

// WithSanitizedHTML passes message bodies through the user generated content policy
// before they are written. Without it bodies are written exactly as received.
func WithSanitizedHTML() Option {
	return func(w *Writer) {
		w.policy = bluemonday.UGCPolicy()
	}
}

// WithUploader copies every written file with u
func WithUploader(u interfaces.Uploader) Option {
	return func(w *Writer) {
		w.uploader = u
	}
}

// WithClock replaces time.Now for artifact timestamps
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// New creates a Writer
func New(opts ...Option) *Writer {
	w := &Writer{
		now:       time.Now,
		userNames: make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RootDirName returns the run directory name for ts, always formatted in UTC
func RootDirName(ts time.Time) string {
	return RootDirPrefix + ts.UTC().Format(RootDirTimeFormat)
}

func (w *Writer) PrepareRoot(ctx context.Context, basePath string, ts time.Time) (string, error) {
	if basePath == "" {
		return "", goerr.New("backup path is empty")
	}

	root := filepath.Join(basePath, RootDirName(ts))
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return "", goerr.Wrap(err, "failed to create backup root directory", goerr.V("path", root))
	}

	logging.From(ctx).Info("Created backup directory", "path", root)
	return root, nil
}

// PrepareUser creates the user directory. Users whose sanitized names collide inside the
// same root get a numeric suffix starting at _2.
func (w *Writer) PrepareUser(ctx context.Context, root string, user *model.User) (string, error) {
	name := w.reserveUserName(root, SanitizeFileName(user.Name()))

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", goerr.Wrap(err, "failed to create user directory",
			goerr.V("path", dir),
			goerr.V(model.UserIDKey, user.ID))
	}
	return dir, nil
}

func (w *Writer) reserveUserName(root, name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	used, ok := w.userNames[root]
	if !ok {
		used = make(map[string]struct{})
		w.userNames[root] = used
	}

	// case-insensitive file systems treat Jane and jane as the same directory
	candidate := name
	for i := 2; ; i++ {
		if _, exists := used[strings.ToLower(candidate)]; !exists {
			break
		}
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
	used[strings.ToLower(candidate)] = struct{}{}
	return candidate
}

// ChatFileName returns the file name of the seq-th chat of a user
func ChatFileName(chat *model.Chat, seq int) string {
	return fmt.Sprintf("%s_%d.html", SanitizeFileName(chat.Title()), seq)
}

func (w *Writer) WriteChat(ctx context.Context, userDir string, chat *model.Chat, messages []*model.Message, seq, total int) (*model.Artifact, error) {
	if seq < 1 || total < seq {
		return nil, goerr.New("invalid chat sequence",
			goerr.V("sequence", seq),
			goerr.V("total", total),
			goerr.V(model.ChatIDKey, chat.ID))
	}

	content, err := w.render(chat, messages, seq, total)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(userDir, ChatFileName(chat, seq))
	if err := os.WriteFile(path, content, filePerm); err != nil {
		return nil, goerr.Wrap(err, "failed to write chat archive",
			goerr.V("path", path),
			goerr.V(model.ChatIDKey, chat.ID))
	}

	logging.From(ctx).Info("Saved chat",
		"path", path,
		"title", chat.Title(),
		"messages", len(messages),
		"sequence", seq,
		"total", total)

	if w.uploader != nil {
		// userDir is <base>/<root>/<user>, uploads are named relative to <base>
		base := filepath.Dir(filepath.Dir(userDir))
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve upload name", goerr.V("path", path))
		}
		if err := w.uploader.Upload(ctx, path, filepath.ToSlash(rel)); err != nil {
			return nil, goerr.Wrap(err, "failed to upload chat archive", goerr.V("path", path))
		}
	}

	return &model.Artifact{
		ChatID:       chat.ID,
		Sequence:     seq,
		Path:         path,
		MessageCount: len(messages),
		WrittenAt:    w.now().UTC(),
	}, nil
}

func (w *Writer) render(chat *model.Chat, messages []*model.Message, seq, total int) ([]byte, error) {
	if len(messages) == 0 {
		return []byte(EmptyChatPlaceholder), nil
	}

	view := chatView{
		Name:     chat.Title(),
		Sequence: seq,
		Total:    total,
		Messages: make([]messageView, 0, len(messages)),
	}
	for _, msg := range messages {
		content := msg.Content()
		if w.policy != nil {
			content = w.policy.Sanitize(content)
		}
		view.Messages = append(view.Messages, messageView{
			Sender:    msg.Sender(),
			Timestamp: msg.Timestamp(),
			// #nosec G203 -- bodies are archived verbatim unless sanitization is enabled
			Content: template.HTML(content),
		})
	}

	var buf bytes.Buffer
	if err := chatTemplate.Execute(&buf, view); err != nil {
		return nil, goerr.Wrap(err, "failed to render chat archive", goerr.V(model.ChatIDKey, chat.ID))
	}
	return buf.Bytes(), nil
}
