package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
	"github.com/secmon-lab/teamsbackup/pkg/utils/safe"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultLoginEndpoint is the identity provider authority
	DefaultLoginEndpoint = "https://login.microsoftonline.com"
	// DefaultScope requests every application permission granted to the app
	DefaultScope = "https://graph.microsoft.com/.default"
	// ExpiryMargin is subtracted from expires_in so a token never expires mid-request
	ExpiryMargin = 180 * time.Second

	maxTokenResponseSize = 1 << 20
)

// TokenSource hands out a bearer token that is valid at the time of the call
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenProvider acquires an application token with the OAuth2 client credentials flow
// and caches it until ExpiryMargin before its expiry. It is safe for concurrent use.
type TokenProvider struct {
	clientID      string
	clientSecret  string
	tenantID      string
	loginEndpoint string
	scope         string
	httpClient    *http.Client
	now           func() time.Time

	mu    sync.Mutex
	cred  *model.Credential
	group singleflight.Group
}

var _ TokenSource = &TokenProvider{}

// TokenOption configures a TokenProvider
type TokenOption func(*TokenProvider)

// WithLoginEndpoint overrides the identity provider authority
func WithLoginEndpoint(endpoint string) TokenOption {
	return func(p *TokenProvider) {
		p.loginEndpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithScope overrides the requested scope
func WithScope(scope string) TokenOption {
	return func(p *TokenProvider) {
		p.scope = scope
	}
}

// WithTokenHTTPClient sets the HTTP client used for the token exchange
func WithTokenHTTPClient(client *http.Client) TokenOption {
	return func(p *TokenProvider) {
		p.httpClient = client
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) TokenOption {
	return func(p *TokenProvider) {
		p.now = now
	}
}

// NewTokenProvider creates a TokenProvider for the given application registration
func NewTokenProvider(clientID, clientSecret, tenantID string, opts ...TokenOption) (*TokenProvider, error) {
	if clientID == "" || clientSecret == "" || tenantID == "" {
		return nil, goerr.New("client id, client secret and tenant id are required",
			goerr.V("client_id.len", len(clientID)),
			goerr.V("client_secret.len", len(clientSecret)),
			goerr.V("tenant_id.len", len(tenantID)),
		)
	}

	p := &TokenProvider{
		clientID:      clientID,
		clientSecret:  clientSecret,
		tenantID:      tenantID,
		loginEndpoint: DefaultLoginEndpoint,
		scope:         DefaultScope,
		httpClient:    &http.Client{Timeout: DefaultRequestTimeout},
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Token returns a cached access token, acquiring a new one when none is cached or the
// cached one has reached its expiry.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	cred, err := p.Credential(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// Credential is like Token but returns a copy of the whole credential
func (p *TokenProvider) Credential(ctx context.Context) (*model.Credential, error) {
	if cred := p.cached(); cred != nil {
		return cred, nil
	}

	// Concurrent callers share a single exchange
	v, err, _ := p.group.Do("token", func() (any, error) {
		if cred := p.cached(); cred != nil {
			return cred, nil
		}

		cred, err := p.acquire(ctx)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.cred = cred
		p.mu.Unlock()

		copied := *cred
		return &copied, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*model.Credential), nil
}

func (p *TokenProvider) cached() *model.Credential {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.cred.ValidAt(p.now()) {
		return nil
	}
	copied := *p.cred
	return &copied
}

func (p *TokenProvider) tokenURL() string {
	return p.loginEndpoint + "/" + url.PathEscape(p.tenantID) + "/oauth2/v2.0/token"
}

type tokenResponse struct {
	AccessToken      string  `json:"access_token"`
	ExpiresIn        seconds `json:"expires_in"`
	TokenType        string  `json:"token_type"`
	Error            string  `json:"error"`
	ErrorDescription string  `json:"error_description"`
}

// seconds accepts both a JSON number and a numeric string
type seconds int64

func (s *seconds) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid expires_in", goerr.V("value", raw))
	}
	*s = seconds(n)
	return nil
}

func (p *TokenProvider) acquire(ctx context.Context) (*model.Credential, error) {
	logger := logging.From(ctx)
	tokenURL := p.tokenURL()

	form := url.Values{}
	form.Set("client_id", p.clientID)
	form.Set("scope", p.scope)
	form.Set("client_secret", p.clientSecret)
	form.Set("grant_type", "client_credentials")
	encoded := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(encoded))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create token request", goerr.V("url", tokenURL))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.ContentLength = int64(len(encoded))

	acquiredAt := p.now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(&TransportError{URL: tokenURL, Err: err}, "failed to request token")
	}
	defer safe.Close(ctx, resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return nil, goerr.Wrap(&TransportError{URL: tokenURL, Err: err}, "failed to read token response")
	}

	var tokenResp tokenResponse
	decodeErr := json.Unmarshal(body, &tokenResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		authErr := &AuthenticationError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			authErr.Code = tokenResp.Error
			authErr.Description = tokenResp.ErrorDescription
		}
		return nil, goerr.Wrap(authErr, "token endpoint rejected the client credentials",
			goerr.V("status", resp.StatusCode),
			goerr.V("tenant_id", p.tenantID))
	}

	if decodeErr != nil {
		return nil, goerr.Wrap(&AuthenticationError{StatusCode: resp.StatusCode, Code: "malformed_response"},
			"failed to parse token response", goerr.V("cause", decodeErr.Error()))
	}
	if tokenResp.AccessToken == "" {
		return nil, goerr.Wrap(&AuthenticationError{StatusCode: resp.StatusCode, Code: "missing_access_token"},
			"token response has no access_token")
	}

	lifetime := time.Duration(tokenResp.ExpiresIn) * time.Second
	if lifetime <= ExpiryMargin {
		return nil, goerr.Wrap(ErrShortLivedToken, "refusing token that is already inside the expiry margin",
			goerr.V("expires_in", int64(tokenResp.ExpiresIn)))
	}

	cred := &model.Credential{
		AccessToken: tokenResp.AccessToken,
		ExpiresAt:   acquiredAt.Add(lifetime - ExpiryMargin),
	}
	logger.Info("Acquired access token", "credential", *cred)

	return cred, nil
}
