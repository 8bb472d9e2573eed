package graph

import (
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
)

// RequiredRoles are the application permissions a full backup needs
var RequiredRoles = []string{"User.Read.All", "Chat.Read.All"}

// TokenClaims is the diagnostic view of an access token
type TokenClaims struct {
	TenantID  string
	AppID     string
	Audience  []string
	Roles     []string
	ExpiresAt time.Time
}

// InspectToken decodes the claims of an access token without verifying its signature.
// The result is only used for diagnostics; the upstream API remains the authority.
func InspectToken(token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseString(token, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode access token claims")
	}

	claims := &TokenClaims{
		Audience:  parsed.Audience(),
		ExpiresAt: parsed.Expiration(),
		TenantID:  stringClaim(parsed, "tid"),
		AppID:     stringClaim(parsed, "appid"),
	}
	if claims.AppID == "" {
		claims.AppID = stringClaim(parsed, "azp")
	}

	if v, ok := parsed.Get("roles"); ok {
		switch roles := v.(type) {
		case []string:
			claims.Roles = append(claims.Roles, roles...)
		case []any:
			for _, r := range roles {
				if s, ok := r.(string); ok {
					claims.Roles = append(claims.Roles, s)
				}
			}
		case string:
			claims.Roles = append(claims.Roles, roles)
		}
	}

	return claims, nil
}

func stringClaim(token jwt.Token, name string) string {
	v, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// MissingRoles returns the entries of required that the token does not carry
func (c *TokenClaims) MissingRoles(required ...string) []string {
	var missing []string
	for _, role := range required {
		if !slices.Contains(c.Roles, role) {
			missing = append(missing, role)
		}
	}
	return missing
}
