package util

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("user disabled")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCatalog     = errors.New("invalid catalog document")
)
