package models

import "errors"

var (
	// ErrBanned is returned when a banned user tries to submit a message.
	ErrBanned = errors.New("user is banned")
	// ErrNotFound is returned when an anonymous ID has no matching message.
	ErrNotFound = errors.New("message not found")
	// ErrTransport wraps failures of the chat transport.
	ErrTransport = errors.New("transport failure")
	// ErrPersistence wraps failures of the persistence store.
	ErrPersistence = errors.New("persistence failure")
	// ErrRateLimited is returned when a user submits messages too quickly.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnsupportedContent is returned when a reply payload cannot be delivered.
	ErrUnsupportedContent = errors.New("unsupported content type")
	// ErrInvalidAction is returned for callback data that is not a known action token.
	ErrInvalidAction = errors.New("invalid action token")
)
