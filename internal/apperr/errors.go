package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrMalformed     = errors.New("malformed dataset")
	ErrUnknownColumn = errors.New("unknown column")
)
