package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/handlers/render"
	"github.com/osavchenko/ecoroute/internal/handlers/userctx"
	"github.com/osavchenko/ecoroute/internal/models"
)

type authService interface {
	Authenticate(ctx context.Context, accessToken string) (models.User, error)
}

// AuthMiddleware resolves the user from the Authorization bearer token and
// puts it into the request context. Requests without a valid access token
// get 401 before the handler runs; a store outage during the lookup gets 503.
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := as.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, apperrors.ErrStoreUnavailable):
				render.ServiceError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
				return
			case err != nil:
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
// Scheme name is matched case-insensitive per RFC 9110.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
