package slack_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
	"github.com/secmon-lab/teamsbackup/pkg/service/slack"
	slackapi "github.com/slack-go/slack"
)

type mockService struct {
	postMessageFn func(ctx context.Context, channelID string, blocks []slackapi.Block, text string) (string, error)
}

func (m *mockService) PostMessage(ctx context.Context, channelID string, blocks []slackapi.Block, text string) (string, error) {
	return m.postMessageFn(ctx, channelID, blocks, text)
}

func newRun(status model.RunStatus) *model.BackupRun {
	started := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	return &model.BackupRun{
		ID:           "run-1",
		RootDir:      "/backup/TeamsChatBackup_2026_10_15_1200",
		Days:         7,
		Status:       status,
		UserCount:    2,
		ChatCount:    5,
		MessageCount: 42,
		StartedAt:    started,
		FinishedAt:   started.Add(90 * time.Second),
	}
}

func TestNewNotifier(t *testing.T) {
	_, err := slack.NewNotifier(nil, "C1")
	gt.Value(t, err).NotNil()

	_, err = slack.NewNotifier(&mockService{}, "")
	gt.Value(t, err).NotNil()
}

func TestNotifyRun(t *testing.T) {
	t.Run("posts summary to the channel", func(t *testing.T) {
		var gotChannel, gotText string
		var gotBlocks []slackapi.Block
		svc := &mockService{
			postMessageFn: func(ctx context.Context, channelID string, blocks []slackapi.Block, text string) (string, error) {
				gotChannel, gotBlocks, gotText = channelID, blocks, text
				return "1.0", nil
			},
		}

		n, err := slack.NewNotifier(svc, "C1")
		gt.NoError(t, err).Required()
		gt.NoError(t, n.NotifyRun(context.Background(), newRun(model.RunStatusSucceeded))).Required()

		gt.Value(t, gotChannel).Equal("C1")
		gt.String(t, gotText).Contains("succeeded")
		gt.Array(t, gotBlocks).Length(3)
	})

	t.Run("failed run includes the error", func(t *testing.T) {
		run := newRun(model.RunStatusFailed)
		run.Error = "upstream returned status 500"

		blocks, text := slack.BuildRunBlocks(run)
		gt.String(t, text).Contains(":x:")
		gt.Array(t, blocks).Length(4)

		section, ok := blocks[3].(*slackapi.SectionBlock)
		gt.Bool(t, ok).True()
		gt.String(t, section.Text.Text).Contains("upstream returned status 500")
	})

	t.Run("post failure is returned", func(t *testing.T) {
		errPost := errors.New("rate limited")
		svc := &mockService{
			postMessageFn: func(ctx context.Context, channelID string, blocks []slackapi.Block, text string) (string, error) {
				return "", errPost
			},
		}

		n, err := slack.NewNotifier(svc, "C1")
		gt.NoError(t, err).Required()
		gt.Error(t, n.NotifyRun(context.Background(), newRun(model.RunStatusSucceeded))).Is(errPost)
	})
}

func TestTruncateToMaxBytes(t *testing.T) {
	gt.Value(t, slack.TruncateToMaxBytes("abc", 10)).Equal("abc")
	gt.Value(t, slack.TruncateToMaxBytes("abcdef", 3)).Equal("abc")
	// "あ" is three bytes
	gt.Value(t, slack.TruncateToMaxBytes("ああ", 4)).Equal("あ")
	gt.Bool(t, len(slack.TruncateToMaxBytes(strings.Repeat("x", 5000), 2900)) == 2900).True()
}
