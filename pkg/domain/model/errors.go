package model

import "github.com/m-mizutani/goerr/v2"

// Validation errors
var (
	ErrMissingIdentifier = goerr.New("mandatory identifier is missing")
	ErrInvalidRunStatus  = goerr.New("invalid run status")
)

// Context keys for error values
const (
	UserIDKey = "user_id"
	ChatIDKey = "chat_id"
	RunIDKey  = "run_id"
)
