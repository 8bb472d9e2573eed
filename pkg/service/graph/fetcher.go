package graph

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/teamsbackup/pkg/utils/logging"
	"github.com/secmon-lab/teamsbackup/pkg/utils/safe"
	"golang.org/x/time/rate"
)

// DefaultRequestTimeout bounds a single HTTP call
const DefaultRequestTimeout = 60 * time.Second

const maxPageSize = 64 << 20

// Fetcher follows next-links of a paginated collection until it is exhausted.
// Requests are issued one at a time.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for page requests
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = client
	}
}

// WithRequestTimeout bounds each page request. Zero disables the per-request timeout.
func WithRequestTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithRateLimit paces page requests to perSecond. A non-positive rate disables pacing.
func WithRateLimit(perSecond float64, burst int) FetcherOption {
	return func(f *Fetcher) {
		if perSecond <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewFetcher creates a Fetcher
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{},
		timeout:    DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// page is the upstream collection envelope
type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

type fetchConfig struct {
	tolerateForbidden bool
}

// FetchOption changes how a single collection is fetched
type FetchOption func(*fetchConfig)

// TolerateForbidden makes a 403 response end the collection instead of failing it.
// Items yielded before the forbidden page are kept.
func TolerateForbidden() FetchOption {
	return func(c *fetchConfig) {
		c.tolerateForbidden = true
	}
}

// Iterate yields every item of the collection starting at initialURL, page by page, in
// upstream order. Iteration stops at the first error.
func Iterate[T any](ctx context.Context, f *Fetcher, tokens TokenSource, initialURL string, opts ...FetchOption) iter.Seq2[T, error] {
	cfg := &fetchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(yield func(T, error) bool) {
		var zero T
		cursor := initialURL
		pageCount := 0
		visited := map[string]struct{}{}

		for cursor != "" {
			p, forbidden, err := fetchPage[T](ctx, f, tokens, cursor, cfg)
			if err != nil {
				yield(zero, err)
				return
			}
			if forbidden {
				logging.From(ctx).Warn("403 Forbidden: ensure the app has the required permissions, keeping items fetched so far",
					"url", cursor,
					"pages", pageCount)
				return
			}
			pageCount++

			for _, item := range p.Value {
				if !yield(item, nil) {
					return
				}
			}

			visited[cursor] = struct{}{}
			if _, ok := visited[p.NextLink]; ok {
				yield(zero, goerr.Wrap(ErrNextLinkLoop, "pagination does not advance",
					goerr.V("url", cursor),
					goerr.V("next_link", p.NextLink)))
				return
			}
			cursor = p.NextLink
		}
	}
}

// FetchAll collects every item of the collection starting at initialURL
func FetchAll[T any](ctx context.Context, f *Fetcher, tokens TokenSource, initialURL string, opts ...FetchOption) ([]T, error) {
	items := []T{}
	for item, err := range Iterate[T](ctx, f, tokens, initialURL, opts...) {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func fetchPage[T any](ctx context.Context, f *Fetcher, tokens TokenSource, target string, cfg *fetchConfig) (*page[T], bool, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, false, goerr.Wrap(err, "interrupted while waiting for rate limiter", goerr.V("url", target))
		}
	}

	token, err := tokens.Token(ctx)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to get access token")
	}

	reqCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to create page request", goerr.V("url", target))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, false, goerr.Wrap(&TransportError{URL: target, Err: err}, "failed to request page")
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode == http.StatusForbidden && cfg.tolerateForbidden {
		safe.Drain(ctx, resp.Body)
		return nil, true, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, false, goerr.Wrap(&UpstreamError{StatusCode: resp.StatusCode, URL: target},
			"upstream returned non-success status",
			goerr.V("status", resp.StatusCode),
			goerr.V("url", target),
			goerr.V("body", string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, false, goerr.Wrap(&TransportError{URL: target, Err: err}, "failed to read page body")
	}

	var p page[T]
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, false, goerr.Wrap(err, "failed to decode page", goerr.V("url", target))
	}

	logging.From(ctx).Debug("Fetched page",
		"url", target,
		"items", len(p.Value),
		"has_next", p.NextLink != "")

	return &p, false, nil
}
