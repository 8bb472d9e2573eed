package slack

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/domain/interfaces"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Section text objects are limited to 3000 characters
const maxSectionBytes = 2900

// Notifier posts a summary of every finished backup run to one channel
type Notifier struct {
	svc       Service
	channelID string
}

var _ interfaces.Notifier = &Notifier{}

// NewNotifier creates a Notifier posting to channelID
func NewNotifier(svc Service, channelID string) (*Notifier, error) {
	if svc == nil {
		return nil, goerr.New("Slack service is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel is required")
	}
	return &Notifier{svc: svc, channelID: channelID}, nil
}

func (n *Notifier) NotifyRun(ctx context.Context, run *model.BackupRun) error {
	blocks, text := BuildRunBlocks(run)
	if _, err := n.svc.PostMessage(ctx, n.channelID, blocks, text); err != nil {
		return goerr.Wrap(err, "failed to notify backup run", goerr.V(model.RunIDKey, run.ID))
	}
	return nil
}

// BuildRunBlocks renders the run summary and its plain text fallback
func BuildRunBlocks(run *model.BackupRun) ([]slack.Block, string) {
	icon := ":white_check_mark:"
	if run.Status == model.RunStatusFailed {
		icon = ":x:"
	}
	text := fmt.Sprintf("%s Teams chat backup %s", icon, run.Status)

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Run ID*\n`%s`", run.ID), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Window*\n%d days", run.Days), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Users*\n%d", run.UserCount), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Chats*\n%d", run.ChatCount), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Messages*\n%d", run.MessageCount), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Duration*\n%s", run.FinishedAt.Sub(run.StartedAt).Round(time.Second)), false, false),
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, text, true, false)),
		slack.NewSectionBlock(nil, fields, nil),
	}

	if run.RootDir != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, "Output: `"+truncateToMaxBytes(run.RootDir, maxSectionBytes)+"`", false, false)))
	}

	if run.Error != "" {
		errText := "```" + truncateToMaxBytes(run.Error, maxSectionBytes) + "```"
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, errText, false, false), nil, nil))
	}

	return blocks, text
}

// truncateToMaxBytes cuts s to at most maxBytes without splitting a UTF-8 sequence
func truncateToMaxBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
