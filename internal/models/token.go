package models

import (
	"time"
)

// TokenType discriminates token privilege: an access token must never be
// accepted where a refresh token is required, and vice versa.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

type IssuedToken struct {
	Value     string
	JTI       string
	ExpiresAt time.Time
}

// Token pair issued by the auth service on login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
