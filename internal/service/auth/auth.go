package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/logger"
	"github.com/osavchenko/ecoroute/internal/models"
	"github.com/osavchenko/ecoroute/internal/repository"
	"github.com/osavchenko/ecoroute/internal/service/auth/tokencodec"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration and login
	// If not set BcryptHasher is used
	Hasher PasswordHasher

	// Logger for internal diagnostics
	// If not set nothing is logged
	Logger logger.Logger
}

// AuthService owns the session state machine: a refresh token is issued
// (store entry present), then consumed by rotation, revoked by logout or
// expired by store TTL. All three removals look identical to callers.
type AuthService struct {
	codec    *tokencodec.Codec
	hasher   PasswordHasher
	users    repository.UserRepo
	sessions repository.RefreshSessionStore
	logger   logger.Logger
}

func NewService(cfg Config, codec *tokencodec.Codec, users repository.UserRepo, sessions repository.RefreshSessionStore) (*AuthService, error) {
	if codec == nil {
		return nil, errors.New("token codec must not be nil")
	}
	if users == nil || sessions == nil {
		return nil, errors.New("repos must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	return &AuthService{
		codec:    codec,
		hasher:   hasher,
		users:    users,
		sessions: sessions,
		logger:   log,
	}, nil
}

// Register creates a new identity. The email-exists check here gives the
// friendly conflict error, the unique index in the store backs it up when two
// registrations race.
func (s *AuthService) Register(ctx context.Context, email string, password string, fullName string) (models.User, error) {
	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return models.User{}, apperrors.ErrUserAlreadyExists
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.users.CreateUser(ctx, repository.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
	})
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Login checks credentials and issues a fresh token pair. A missing user and
// a wrong password fail identically so the error can't tell them apart.
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.TokenPair{}, apperrors.ErrUnauthorized
	case err != nil:
		return models.TokenPair{}, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	return s.issuePair(ctx, user)
}

// Refresh rotates a refresh token: the presented token's store entry is
// consumed atomically before the replacement pair is issued, so N concurrent
// attempts with one token produce exactly one success. All rejection reasons
// collapse into ErrUnauthorized, store outages pass through unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected", "reason", err.Error())
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	if claims.TokenType != models.TokenTypeRefresh {
		s.logger.Debug("refresh token rejected", "reason", apperrors.ErrTokenTypeMismatch.Error(), "type", string(claims.TokenType))
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	ownerID, err := s.sessions.Consume(ctx, claims.ID)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		// rotated, revoked or TTL-expired: all the same from here
		s.logger.Debug("refresh token rejected", "reason", "session not found", "jti", claims.ID)
		return models.TokenPair{}, apperrors.ErrUnauthorized
	case err != nil:
		return models.TokenPair{}, err
	}

	if ownerID != claims.Subject {
		s.logger.Warn("refresh token subject does not match session owner", "jti", claims.ID)
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	user, err := s.users.GetUserByID(ctx, claims.Subject)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// deleted since issuance
		s.logger.Debug("refresh token rejected", "reason", "user not found", "sub", claims.Subject)
		return models.TokenPair{}, apperrors.ErrUnauthorized
	case err != nil:
		return models.TokenPair{}, err
	}

	return s.issuePair(ctx, user)
}

// Logout best-effort revokes the presented token's session. It never fails
// visibly: garbage input, decode errors and store errors are swallowed.
// An expired or access-typed token with a valid signature is still revoked.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil && !errors.Is(err, apperrors.ErrTokenExpired) {
		return
	}
	if claims.ID == "" {
		return
	}

	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		s.logger.Warn("logout revoke failed", "jti", claims.ID, "error", err.Error())
	}
}

// Authenticate resolves the user behind an access token, for the protected
// endpoints middleware
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (models.User, error) {
	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		return models.User{}, apperrors.ErrUnauthorized
	}

	if claims.TokenType != models.TokenTypeAccess {
		return models.User{}, apperrors.ErrUnauthorized
	}

	user, err := s.users.GetUserByID(ctx, claims.Subject)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, apperrors.ErrUnauthorized
	case err != nil:
		return models.User{}, err
	}

	return user, nil
}

// issuePair issues a fresh access/refresh pair and registers the refresh jti
// in the session store. The entry TTL is the token's remaining lifetime, so
// the store forgets it exactly when the codec would reject it anyway.
func (s *AuthService) issuePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	pair, err := s.codec.IssuePair(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	ttl := time.Until(pair.Refresh.ExpiresAt)
	if err := s.sessions.Put(ctx, pair.Refresh.JTI, user.ID, ttl); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}
