package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrTimeout  = errors.New("request timed out")
)
