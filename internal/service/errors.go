package service

import "errors"

// Errors returned by TodoService. Handlers map them onto HTTP statuses.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("todo not found")
	ErrInternal     = errors.New("internal error")
)
