package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// UntitledChatName is used when the chat has no topic at all
	UntitledChatName = "UntitledChat"
	// UnknownChatTitle is used when the topic is present but empty
	UnknownChatTitle = "UnknownTitle"
)

// ChatID identifies a conversation
type ChatID string

// Chat is a message thread between two or more directory users.
// Topic is nil when the upstream record carries no topic.
type Chat struct {
	ID            ChatID
	Topic         *string
	ChatType      string
	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// Validate fails when the mandatory chat id is missing
func (c *Chat) Validate() error {
	if c.ID == "" {
		return goerr.Wrap(ErrMissingIdentifier, "chat id is empty")
	}
	return nil
}

// Title returns the name used for the archive heading and file name
func (c *Chat) Title() string {
	if c.Topic == nil {
		return UntitledChatName
	}
	if *c.Topic == "" {
		return UnknownChatTitle
	}
	return *c.Topic
}
