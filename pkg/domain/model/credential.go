package model

import (
	"log/slog"
	"time"
)

// Credential is a bearer token for the upstream API. It is never persisted.
type Credential struct {
	AccessToken string `masq:"secret"`
	ExpiresAt   time.Time
}

// ValidAt reports whether the credential can still be used at now
func (c *Credential) ValidAt(now time.Time) bool {
	return c != nil && c.AccessToken != "" && now.Before(c.ExpiresAt)
}

func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("access_token.len", len(c.AccessToken)),
		slog.Time("expires_at", c.ExpiresAt),
	)
}
