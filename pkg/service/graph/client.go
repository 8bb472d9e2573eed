package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
)

const (
	// DefaultEndpoint is the upstream API root
	DefaultEndpoint = "https://graph.microsoft.com/v1.0"
	// MessagePageSize bounds the payload of one message page
	MessagePageSize = 50

	// 100ns ticks, the resolution of upstream timestamps
	filterTimeFormat    = "2006-01-02T15:04:05.9999999Z"
	filterTimePrecision = 100 * time.Nanosecond
)

// Service lists the resources a backup walks through
type Service interface {
	// ListUsers returns every directory user in listing order
	ListUsers(ctx context.Context) ([]*model.User, error)

	// ListChats returns every chat the user participates in, in listing order
	ListChats(ctx context.Context, userID model.UserID) ([]*model.Chat, error)

	// ListChatMessages returns the messages of a chat modified strictly after since.
	// A permission error on any page ends the listing and returns what was collected.
	ListChatMessages(ctx context.Context, chatID model.ChatID, since time.Time) ([]*model.Message, error)
}

type client struct {
	endpoint string
	tokens   TokenSource
	fetcher  *Fetcher
}

// Option configures the Service
type Option func(*client)

// WithEndpoint overrides the upstream API root
func WithEndpoint(endpoint string) Option {
	return func(c *client) {
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithFetcher sets the Fetcher used for every collection
func WithFetcher(f *Fetcher) Option {
	return func(c *client) {
		c.fetcher = f
	}
}

// New creates a Service that authenticates every request with tokens
func New(tokens TokenSource, opts ...Option) (Service, error) {
	if tokens == nil {
		return nil, goerr.New("token source is required")
	}

	c := &client{
		endpoint: DefaultEndpoint,
		tokens:   tokens,
		fetcher:  NewFetcher(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) usersURL() string {
	return c.endpoint + "/users?$select=id,displayName,userPrincipalName"
}

func (c *client) chatsURL(userID model.UserID) string {
	return c.endpoint + "/users/" + url.PathEscape(string(userID)) + "/chats"
}

func (c *client) messagesURL(chatID model.ChatID, since time.Time) string {
	filter := "lastModifiedDateTime gt " + filterTime(since)
	return fmt.Sprintf("%s/chats/%s/messages?$top=%d&$filter=%s",
		c.endpoint, url.PathEscape(string(chatID)), MessagePageSize, url.PathEscape(filter))
}

// filterTime rounds since up to the filter precision so that "gt" never admits a
// message modified at or before since
func filterTime(since time.Time) string {
	since = since.UTC()
	if t := since.Truncate(filterTimePrecision); t.Before(since) {
		since = t.Add(filterTimePrecision)
	}
	return since.Format(filterTimeFormat)
}

func (c *client) ListUsers(ctx context.Context) ([]*model.User, error) {
	records, err := FetchAll[graphUser](ctx, c.fetcher, c.tokens, c.usersURL())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}

	users := make([]*model.User, 0, len(records))
	for i := range records {
		user, err := records[i].toModel()
		if err != nil {
			return nil, goerr.Wrap(err, "invalid user record", goerr.V("index", i))
		}
		users = append(users, user)
	}
	return users, nil
}

func (c *client) ListChats(ctx context.Context, userID model.UserID) ([]*model.Chat, error) {
	records, err := FetchAll[graphChat](ctx, c.fetcher, c.tokens, c.chatsURL(userID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list chats", goerr.V(model.UserIDKey, userID))
	}

	chats := make([]*model.Chat, 0, len(records))
	for i := range records {
		chat, err := records[i].toModel()
		if err != nil {
			return nil, goerr.Wrap(err, "invalid chat record",
				goerr.V(model.UserIDKey, userID), goerr.V("index", i))
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

func (c *client) ListChatMessages(ctx context.Context, chatID model.ChatID, since time.Time) ([]*model.Message, error) {
	records, err := FetchAll[graphMessage](ctx, c.fetcher, c.tokens, c.messagesURL(chatID, since), TolerateForbidden())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list chat messages", goerr.V(model.ChatIDKey, chatID))
	}

	messages := make([]*model.Message, 0, len(records))
	for i := range records {
		messages = append(messages, records[i].toModel())
	}
	return messages, nil
}
