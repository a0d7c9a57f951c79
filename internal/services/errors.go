package services

import "errors"

// Request-level error taxonomy. Dependency failures (queue, generator) are
// absorbed inside the services and never reach these.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotConfigured = errors.New("dependency not configured")
)
