package services

import "errors"

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInternal           = errors.New("internal error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
