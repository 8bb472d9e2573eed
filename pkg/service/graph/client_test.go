package graph_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
	"github.com/secmon-lab/teamsbackup/pkg/service/graph"
)

func newService(t *testing.T, r chi.Router, tokens graph.TokenSource) graph.Service {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	svc, err := graph.New(tokens, graph.WithEndpoint(srv.URL+"/v1.0/"))
	gt.NoError(t, err).Required()
	return svc
}

func TestNew(t *testing.T) {
	_, err := graph.New(nil)
	gt.Value(t, err).NotNil()
}

func TestMessagesURL(t *testing.T) {
	svc, err := graph.New(staticToken("tkn"), graph.WithEndpoint("https://graph.example.com/v1.0"))
	gt.NoError(t, err).Required()

	since := time.Date(2026, 10, 8, 9, 30, 15, 0, time.FixedZone("JST", 9*3600))
	raw := graph.MessagesURL(svc, "19:abc@thread.v2", since)

	u, err := url.Parse(raw)
	gt.NoError(t, err).Required()
	gt.Value(t, u.Path).Equal("/v1.0/chats/19:abc@thread.v2/messages")
	gt.Value(t, u.Query().Get("$top")).Equal("50")
	gt.Value(t, u.Query().Get("$filter")).Equal("lastModifiedDateTime gt 2026-10-08T00:30:15Z")
}

func TestMessagesURL_SubSecondCutoff(t *testing.T) {
	svc, err := graph.New(staticToken("tkn"), graph.WithEndpoint("https://graph.example.com/v1.0"))
	gt.NoError(t, err).Required()

	tests := []struct {
		name string
		nsec int
		want string
	}{
		{"exact tick", 500_000_000, "lastModifiedDateTime gt 2026-10-08T00:30:15.5Z"},
		{"between ticks rounds up", 123_456_789, "lastModifiedDateTime gt 2026-10-08T00:30:15.1234568Z"},
		{"just below a second", 999_999_950, "lastModifiedDateTime gt 2026-10-08T00:30:16Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			since := time.Date(2026, 10, 8, 0, 30, 15, tt.nsec, time.UTC)
			u, err := url.Parse(graph.MessagesURL(svc, "c1", since))
			gt.NoError(t, err).Required()
			gt.Value(t, u.Query().Get("$filter")).Equal(tt.want)
		})
	}
}

func TestListUsers(t *testing.T) {
	var srvURL string
	r := chi.NewRouter()
	r.Get("/v1.0/users", func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Query().Get("$select")).Equal("id,displayName,userPrincipalName")
		if r.URL.Query().Get("$skiptoken") == "" {
			_, _ = w.Write([]byte(`{"value":[{"id":"u1","displayName":"Jane Doe","userPrincipalName":"jane@example.com"}],` +
				`"@odata.nextLink":"` + srvURL + `/v1.0/users?$select=id,displayName,userPrincipalName&$skiptoken=x"}`))
			return
		}
		_, _ = w.Write([]byte(`{"value":[{"id":"u2"}]}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	srvURL = srv.URL

	svc, err := graph.New(staticToken("tkn"), graph.WithEndpoint(srv.URL+"/v1.0"))
	gt.NoError(t, err).Required()

	users, err := svc.ListUsers(context.Background())
	gt.NoError(t, err).Required()
	gt.Array(t, users).Length(2)
	gt.Value(t, users[0].ID).Equal(model.UserID("u1"))
	gt.Value(t, users[0].Name()).Equal("Jane Doe")
	gt.Value(t, users[1].Name()).Equal(model.UnknownName)
}

func TestListUsers_MissingID(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1.0/users", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":[{"id":"u1"},{"displayName":"ghost"}]}`))
	})
	svc := newService(t, r, staticToken("tkn"))

	_, err := svc.ListUsers(context.Background())
	gt.Error(t, err).Is(model.ErrMissingIdentifier)
}

func TestListChats(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1.0/users/{userID}/chats", func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, chi.URLParam(r, "userID")).Equal("u1")
		_, _ = w.Write([]byte(`{"value":[` +
			`{"id":"c1","topic":"Project X","chatType":"group","createdDateTime":"2026-10-01T00:00:00Z"},` +
			`{"id":"c2","topic":""},` +
			`{"id":"c3","topic":null}]}`))
	})
	svc := newService(t, r, staticToken("tkn"))

	chats, err := svc.ListChats(context.Background(), "u1")
	gt.NoError(t, err).Required()
	gt.Array(t, chats).Length(3)
	gt.Value(t, chats[0].Title()).Equal("Project X")
	gt.Bool(t, chats[0].CreatedAt.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))).True()
	gt.Value(t, chats[1].Title()).Equal(model.UnknownChatTitle)
	gt.Value(t, chats[2].Title()).Equal(model.UntitledChatName)
}

func TestListChats_MissingID(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1.0/users/{userID}/chats", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":[{"topic":"no id"}]}`))
	})
	svc := newService(t, r, staticToken("tkn"))

	_, err := svc.ListChats(context.Background(), "u1")
	gt.Error(t, err).Is(model.ErrMissingIdentifier)
}

func TestListChatMessages(t *testing.T) {
	var filter, top string
	r := chi.NewRouter()
	r.Get("/v1.0/chats/{chatID}/messages", func(w http.ResponseWriter, r *http.Request) {
		filter = r.URL.Query().Get("$filter")
		top = r.URL.Query().Get("$top")
		_, _ = w.Write([]byte(`{"value":[` +
			`{"id":"m1","createdDateTime":"2026-10-14T08:00:00Z","from":{"user":{"displayName":"Alice"}},"body":{"contentType":"html","content":"<p>hi</p>"}},` +
			`{"id":"m2","from":{"application":{"displayName":"Bot"}},"body":{}},` +
			`{"id":"m3","createdDateTime":"not a date","from":null}` +
			`]}`))
	})
	svc := newService(t, r, staticToken("tkn"))

	since := time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC)
	msgs, err := svc.ListChatMessages(context.Background(), "c1", since)
	gt.NoError(t, err).Required()

	gt.Value(t, top).Equal("50")
	gt.Value(t, filter).Equal("lastModifiedDateTime gt 2026-10-08T00:00:00Z")

	gt.Array(t, msgs).Length(3)
	gt.Value(t, msgs[0].Sender()).Equal("Alice")
	gt.Value(t, msgs[0].Content()).Equal("<p>hi</p>")
	gt.Value(t, msgs[0].Timestamp()).Equal("2026-10-14T08:00:00Z")

	gt.Value(t, msgs[1].Sender()).Equal("Bot")
	gt.Value(t, msgs[1].Content()).Equal(model.NoContent)

	gt.Value(t, msgs[2].Sender()).Equal(model.UnknownSender)
	gt.Value(t, msgs[2].Timestamp()).Equal(model.UnknownDate)
}

func TestListChatMessages_Forbidden(t *testing.T) {
	var srvURL string
	r := chi.NewRouter()
	r.Get("/v1.0/chats/{chatID}/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("$skiptoken") != "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"value":[{"id":"m1"}],"@odata.nextLink":"` + srvURL + `/v1.0/chats/c1/messages?$skiptoken=2"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	srvURL = srv.URL

	svc, err := graph.New(staticToken("tkn"), graph.WithEndpoint(srv.URL+"/v1.0"))
	gt.NoError(t, err).Required()

	msgs, err := svc.ListChatMessages(context.Background(), "c1", time.Now())
	gt.NoError(t, err).Required()
	gt.Array(t, msgs).Length(1)
}

func TestListChats_ForbiddenIsError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1.0/users/{userID}/chats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	svc := newService(t, r, staticToken("tkn"))

	_, err := svc.ListChats(context.Background(), "u1")
	var upstreamErr *graph.UpstreamError
	gt.Bool(t, errors.As(err, &upstreamErr)).True()
	gt.Value(t, upstreamErr.StatusCode).Equal(http.StatusForbidden)
}

func TestService_ReusesCachedToken(t *testing.T) {
	var posts atomic.Int32
	r := chi.NewRouter()
	r.Post("/{tenant}/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		_, _ = w.Write([]byte(`{"expires_in":3600,"access_token":"cached"}`))
	})
	r.Get("/v1.0/users", func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Header.Get("Authorization")).Equal("Bearer cached")
		_, _ = w.Write([]byte(`{"value":[{"id":"u1"}]}`))
	})
	r.Get("/v1.0/users/{userID}/chats", func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Header.Get("Authorization")).Equal("Bearer cached")
		_, _ = w.Write([]byte(`{"value":[]}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	clock := newFakeClock()
	tokens, err := graph.NewTokenProvider("id", "secret", "tenant",
		graph.WithLoginEndpoint(srv.URL), graph.WithClock(clock.Now))
	gt.NoError(t, err).Required()

	svc, err := graph.New(tokens, graph.WithEndpoint(srv.URL+"/v1.0"))
	gt.NoError(t, err).Required()

	_, err = svc.ListUsers(context.Background())
	gt.NoError(t, err).Required()
	clock.Advance(10 * time.Minute)
	_, err = svc.ListChats(context.Background(), "u1")
	gt.NoError(t, err).Required()

	gt.Value(t, posts.Load()).Equal(int32(1))
}
