package graph

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// ErrShortLivedToken is returned when the identity provider issues a token whose lifetime
// does not exceed the expiry margin, so it could never be handed out as valid.
var ErrShortLivedToken = goerr.New("token lifetime is shorter than the expiry margin")

// ErrNextLinkLoop is returned when a next link points at a page already fetched
var ErrNextLinkLoop = goerr.New("next link revisits a fetched page")

// AuthenticationError is returned when the token endpoint rejects the client credentials
// or answers with a non-success status.
type AuthenticationError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *AuthenticationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authentication failed: status %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("authentication failed: status %d", e.StatusCode)
}

// UpstreamError is returned when a paginated fetch receives a non-success status
type UpstreamError struct {
	StatusCode int
	URL        string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// TransportError wraps network level failures such as DNS errors, resets and timeouts
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return "transport failure: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
