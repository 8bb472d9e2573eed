package graph

import (
	"time"

	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
)

// Wire records of the upstream API. Optional fields are pointers or lenient strings so
// that a missing or malformed value degrades to a documented fallback instead of failing
// the whole page.

type graphUser struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

type graphChat struct {
	ID                  string  `json:"id"`
	Topic               *string `json:"topic"`
	ChatType            string  `json:"chatType"`
	CreatedDateTime     string  `json:"createdDateTime"`
	LastUpdatedDateTime string  `json:"lastUpdatedDateTime"`
}

type graphIdentity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type graphMessage struct {
	ID                   string `json:"id"`
	CreatedDateTime      string `json:"createdDateTime"`
	LastModifiedDateTime string `json:"lastModifiedDateTime"`
	From                 *struct {
		User        *graphIdentity `json:"user"`
		Application *graphIdentity `json:"application"`
	} `json:"from"`
	Body *struct {
		ContentType string  `json:"contentType"`
		Content     *string `json:"content"`
	} `json:"body"`
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (u *graphUser) toModel() (*model.User, error) {
	user := &model.User{
		ID:                model.UserID(u.ID),
		DisplayName:       u.DisplayName,
		UserPrincipalName: u.UserPrincipalName,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *graphChat) toModel() (*model.Chat, error) {
	chat := &model.Chat{
		ID:            model.ChatID(c.ID),
		Topic:         c.Topic,
		ChatType:      c.ChatType,
		CreatedAt:     parseTime(c.CreatedDateTime),
		LastUpdatedAt: parseTime(c.LastUpdatedDateTime),
	}
	if err := chat.Validate(); err != nil {
		return nil, err
	}
	return chat, nil
}

// sender prefers the user identity and falls back to the application identity.
// An empty result becomes model.UnknownSender when rendered.
func (m *graphMessage) sender() string {
	if m.From == nil {
		return ""
	}
	if m.From.User != nil && m.From.User.DisplayName != "" {
		return m.From.User.DisplayName
	}
	if m.From.Application != nil && m.From.Application.DisplayName != "" {
		return m.From.Application.DisplayName
	}
	return ""
}

func (m *graphMessage) toModel() *model.Message {
	msg := &model.Message{
		ID:                m.ID,
		SenderDisplayName: m.sender(),
		CreatedAt:         parseTime(m.CreatedDateTime),
		LastModifiedAt:    parseTime(m.LastModifiedDateTime),
	}
	if m.Body != nil {
		msg.BodyContent = m.Body.Content
	}
	return msg
}
