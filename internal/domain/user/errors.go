package user

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidCredential = errors.New("invalid credential")
)
