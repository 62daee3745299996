// Package common defines shared constants and sentinel errors used across
// the credential and asset-storage layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Credential errors. Messages are deliberately generic: they cross the
	// service boundary and must not reveal account existence or store details.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrPersistence        = errors.New("operation failed, please try again later")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Asset storage errors.
	ErrValidation = errors.New("validation error")
	ErrTransport  = errors.New("storage backend error")
)
