package tokencodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims carried by every token. The signature covers all of them, so
// tampering with any single claim invalidates the token.
type Claims struct {
	jwt.RegisteredClaims
	Email     string           `json:"email"`
	TokenType models.TokenType `json:"type"`
}

// Codec config with sensible defaults
type Config struct {
	// Secret key to sign token payloads
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec signs and verifies token payloads. It is stateless: all state lives
// in the claims themselves. Construct one per process with an immutable
// Config, tests may construct as many as they like with distinct secrets.
type Codec struct {
	// Secret key to sign token payloads
	key string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Codec, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Codec{
		key:        cfg.SecretKey,
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// Issue signs a token of the given type for the user with a fresh jti
func (c *Codec) Issue(user models.User, tokenType models.TokenType) (models.IssuedToken, error) {
	var ttl time.Duration
	switch tokenType {
	case models.TokenTypeAccess:
		ttl = c.accessTTL
	case models.TokenTypeRefresh:
		ttl = c.refreshTTL
	default:
		return models.IssuedToken{}, fmt.Errorf("can't issue token of type %q", tokenType)
	}

	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	jti := uuid.NewString()

	token := jwt.NewWithClaims(
		c.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   user.ID,
				ID:        jti,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Email:     user.Email,
			TokenType: tokenType,
		},
	)

	signed, err := token.SignedString([]byte(c.key))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// IssuePair issues an access and a refresh token for the user, each with its
// own fresh jti
func (c *Codec) IssuePair(user models.User) (models.TokenPair, error) {
	access, err := c.Issue(user, models.TokenTypeAccess)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := c.Issue(user, models.TokenTypeRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Decode verifies the signature and expiry and returns the claims.
// Expiry is checked here, not deferred to callers: an expired token fails
// with apperrors.ErrTokenExpired, everything else malformed or forged fails
// with apperrors.ErrTokenInvalid.
//
// An expired token returns its claims together with the error: the signature
// was still valid, and logout needs the jti to revoke such tokens.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(c.key), nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)

	switch {
	case err == nil:
		return *claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return *claims, fmt.Errorf("%w: %v", apperrors.ErrTokenExpired, err)
	default:
		return Claims{}, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}
}
