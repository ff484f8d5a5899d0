package models

import "errors"

var (
	ErrNotFound        = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmailInUse      = errors.New("email already in use")
	ErrUnknownRole     = errors.New("unknown role")
	// ErrRoleDataMissing means a User row exists without its subtype row.
	ErrRoleDataMissing = errors.New("role data missing")
)
