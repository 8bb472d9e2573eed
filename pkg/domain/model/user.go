package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// UnknownName is shown when a directory user has no display name
const UnknownName = "Unknown"

// UserID is the stable directory identifier of a user
type UserID string

// User is an account in the organization directory
type User struct {
	ID                UserID
	DisplayName       string
	UserPrincipalName string
}

// Validate fails when the mandatory user id is missing
func (u *User) Validate() error {
	if u.ID == "" {
		return goerr.Wrap(ErrMissingIdentifier, "user id is empty",
			goerr.V("display_name", u.DisplayName))
	}
	return nil
}

// Name returns the display name, or UnknownName when the directory has none
func (u *User) Name() string {
	if strings.TrimSpace(u.DisplayName) == "" {
		return UnknownName
	}
	return u.DisplayName
}

// Matches reports whether selector names this user by id or principal name.
// The principal name comparison is case-insensitive.
func (u *User) Matches(selector string) bool {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return false
	}
	if string(u.ID) == selector {
		return true
	}
	return u.UserPrincipalName != "" && strings.EqualFold(u.UserPrincipalName, selector)
}
