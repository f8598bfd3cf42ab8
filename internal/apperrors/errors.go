package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// ErrUnauthorized is the only authentication failure callers of the auth
	// service ever see: bad credentials, forged or expired tokens, reused
	// refresh tokens and deleted users all collapse into it so the error
	// itself can't be used as an oracle.
	ErrUnauthorized = errors.New("unauthorized")

	// Internal token states. The auth service logs them but never returns
	// them; outside the service they only show up wrapped in ErrUnauthorized.
	ErrTokenInvalid      = errors.New("token is invalid")
	ErrTokenExpired      = errors.New("token is expired")
	ErrTokenTypeMismatch = errors.New("unexpected token type")

	ErrSessionNotFound = errors.New("refresh session not found")

	// ErrStoreUnavailable means the identity or session store can't be
	// reached. It must stay distinguishable from ErrUnauthorized so the HTTP
	// layer can answer 503 instead of 401.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrSearchNotFound = errors.New("search not found")

	ErrTransportModeUnknown = errors.New("unknown transport mode")
	ErrNoRoutesFound        = errors.New("no routes found between points")
)
