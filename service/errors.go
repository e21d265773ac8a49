package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrSelfAction        = errors.New("cannot target yourself")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidInput      = errors.New("invalid input")
)
