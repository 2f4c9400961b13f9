package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateLoginID = errors.New("login id already exists")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
)
