package api

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrRepositoryExists   = errors.New("repository already exists")
	ErrInvalidName        = errors.New("invalid repository name")
	ErrCommitNotFound     = errors.New("commit not found")
	ErrInvalidCommit      = errors.New("invalid commit")
	ErrCommitMismatch     = errors.New("downloaded commit does not match its id")
	ErrTooLarge           = errors.New("request too large")
)

// StatusError is a non successful answer from a server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned HTTP status %d", e.Code)
	}
	return fmt.Sprintf("server returned HTTP status %d: %s", e.Code, e.Message)
}
