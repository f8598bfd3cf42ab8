package repository

import (
	"context"
	"time"

	"github.com/osavchenko/ecoroute/internal/models"
)

type CreateUserParams struct {
	Email        string
	PasswordHash string
	FullName     string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the same email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by its id or email (email compared case-insensitive)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshSessionStore tracks currently valid refresh tokens by jti.
// Entry absence means untrusted: rotated, revoked and TTL-expired tokens are
// indistinguishable on purpose.
type RefreshSessionStore interface {
	// Put creates or overwrites the jti entry, ttl enforced by the store
	Put(ctx context.Context, jti string, userID string, ttl time.Duration) error

	// Exists reports whether an unexpired, non-revoked entry is present
	Exists(ctx context.Context, jti string) (bool, error)

	// Consume atomically removes the entry and returns the owning user id.
	// If the entry is absent must return apperrors.ErrSessionNotFound.
	// Two concurrent Consume calls with one jti must not both succeed.
	Consume(ctx context.Context, jti string) (string, error)

	// Revoke removes the entry, revoking an absent jti is not an error
	Revoke(ctx context.Context, jti string) error
}

type ListSearchesParams struct {
	Page  int64
	Limit int64

	// Sort field name, prefix '-' for descending, e.g. "-created_at"
	Sort string

	// Optional transport mode filter, empty means all
	Mode models.TransportMode
}

// Search history repository interface
type SearchRepo interface {
	SaveSearch(ctx context.Context, s models.Search) (models.Search, error)

	// ListSearches returns one page of the user's searches and the total count
	ListSearches(ctx context.Context, userID string, p ListSearchesParams) ([]models.Search, int64, error)

	// Get or delete a search owned by the user
	// If not found (or owned by somebody else) must return apperrors.ErrSearchNotFound
	GetSearch(ctx context.Context, id string, userID string) (models.Search, error)
	DeleteSearch(ctx context.Context, id string, userID string) error

	// SearchStats aggregates totals over all user's searches
	SearchStats(ctx context.Context, userID string) (models.SearchStats, error)
}
