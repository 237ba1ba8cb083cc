package apperr

import "errors"

var (
	ErrConflict     = errors.New("resource already exists")
	ErrValidation   = errors.New("missing or malformed field")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrNotFound     = errors.New("resource not found")
)
