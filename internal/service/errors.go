package service

import (
	"errors"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAggregateImmutable  = errors.New("aggregate lists are managed by the server")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// ValidationError carries the messages returned in a 422 body.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func invalid(messages ...string) error {
	return &ValidationError{Messages: messages}
}
