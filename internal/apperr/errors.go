// Package apperr defines the error taxonomy shared by services and
// handlers. Services wrap these sentinels with context; handlers map them
// to HTTP statuses with errors.Is.
package apperr

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrGone              = errors.New("gone")
	ErrValidation        = errors.New("validation failed")
	ErrResourceExhausted = errors.New("resource exhausted")
)
