package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/handlers/userctx"
	"github.com/osavchenko/ecoroute/internal/models"
)

// Allow to use a function as auth service
type authFunc func(ctx context.Context, accessToken string) (models.User, error)

func (f authFunc) Authenticate(ctx context.Context, accessToken string) (models.User, error) {
	return f(ctx, accessToken)
}

func TestAuthMiddleware(t *testing.T) {
	// Simple handler that gets the user from context and echoes the email
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must always be true cause middleware has to set user or reject the request
		user, ok := userctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(user.Email))
		require.NoError(t, err, "should write email to response")
	})

	get := func(t *testing.T, url string, authorization string) (int, string) {
		t.Helper()

		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		return resp.StatusCode, string(body)
	}

	t.Run("auth ok", func(t *testing.T) {
		var gotToken string
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, accessToken string) (models.User, error) {
			gotToken = accessToken
			return models.User{Email: "alice@example.com"}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		code, body := get(t, srv.URL+"/test", "Bearer some-access-token")

		require.Equalf(t, http.StatusOK, code, "should return status OK. Resp: %s", body)
		require.Equal(t, "alice@example.com", body, "should return email in response")
		require.Equal(t, "some-access-token", gotToken, "token should be stripped of the scheme")
	})

	t.Run("auth fail", func(t *testing.T) {
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, accessToken string) (models.User, error) {
			return models.User{}, apperrors.ErrUnauthorized
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		code, body := get(t, srv.URL+"/test", "Bearer bad-token")

		require.Equalf(t, http.StatusUnauthorized, code, "should return status Unauthorized. Resp: %s", body)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Unauthorized"
			}`,
			body,
		)
	})

	t.Run("store outage is 503, not invalid token", func(t *testing.T) {
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, accessToken string) (models.User, error) {
			return models.User{}, fmt.Errorf("%w: mongo get user: connection refused", apperrors.ErrStoreUnavailable)
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		code, body := get(t, srv.URL+"/test", "Bearer still-valid-token")

		require.Equalf(t, http.StatusServiceUnavailable, code, "should return status ServiceUnavailable. Resp: %s", body)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Service temporarily unavailable"
			}`,
			body,
		)
	})

	t.Run("no header means no service call", func(t *testing.T) {
		called := false
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, accessToken string) (models.User, error) {
			called = true
			return models.User{}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		code, _ := get(t, srv.URL+"/test", "")

		require.Equal(t, http.StatusUnauthorized, code)
		require.False(t, called, "service should not be asked about a missing token")
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{
			name:      "plain bearer",
			header:    "Bearer abc.def.ghi",
			wantToken: "abc.def.ghi",
			wantOK:    true,
		},
		{
			name:      "scheme is case insensitive",
			header:    "bearer abc",
			wantToken: "abc",
			wantOK:    true,
		},
		{
			name:   "missing header",
			header: "",
			wantOK: false,
		},
		{
			name:   "wrong scheme",
			header: "Basic dXNlcjpwYXNz",
			wantOK: false,
		},
		{
			name:   "scheme without token",
			header: "Bearer ",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			token, ok := BearerToken(r)

			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantToken, token)
		})
	}
}
