package service

import "errors"

// ErrInvalidInput marks caller mistakes that map to HTTP 400.
var ErrInvalidInput = errors.New("invalid input")
