package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/logger"
	"github.com/osavchenko/ecoroute/internal/models"
	"github.com/osavchenko/ecoroute/internal/service/route"
	"github.com/osavchenko/ecoroute/internal/service/search"
)

// fakeAuthService speaks the router's auth contract with canned answers
type fakeAuthService struct {
	user models.User
	pair models.TokenPair
	err  error

	loggedOut []string
}

func (f *fakeAuthService) Register(_ context.Context, email string, _ string, fullName string) (models.User, error) {
	if f.err != nil {
		return models.User{}, f.err
	}
	u := f.user
	u.Email = email
	u.FullName = fullName
	return u, nil
}

func (f *fakeAuthService) Login(_ context.Context, _ string, _ string) (models.TokenPair, error) {
	return f.pair, f.err
}

func (f *fakeAuthService) Refresh(_ context.Context, _ string) (models.TokenPair, error) {
	return f.pair, f.err
}

func (f *fakeAuthService) Logout(_ context.Context, token string) {
	f.loggedOut = append(f.loggedOut, token)
}

func (f *fakeAuthService) Authenticate(_ context.Context, accessToken string) (models.User, error) {
	if accessToken != "valid-access" {
		return models.User{}, apperrors.ErrUnauthorized
	}
	return f.user, nil
}

type fakeSearchService struct {
	page  search.Page
	s     models.Search
	stats models.SearchStats
	err   error
}

func (f *fakeSearchService) List(_ context.Context, _ string, _ search.ListRequest) (search.Page, error) {
	return f.page, f.err
}

func (f *fakeSearchService) Get(_ context.Context, _ string, _ string) (models.Search, error) {
	return f.s, f.err
}

func (f *fakeSearchService) Delete(_ context.Context, _ string, _ string) error {
	return f.err
}

func (f *fakeSearchService) Stats(_ context.Context, _ string) (models.SearchStats, error) {
	return f.stats, f.err
}

type fakeRouteService struct {
	comparison route.Comparison
	err        error

	gotUserID string
	gotReq    route.CalculateRequest
}

func (f *fakeRouteService) Calculate(_ context.Context, userID string, req route.CalculateRequest) (route.Comparison, error) {
	f.gotUserID = userID
	f.gotReq = req
	return f.comparison, f.err
}

func someUser() models.User {
	return models.User{
		ID:        "user-1",
		Email:     "alice@example.com",
		FullName:  "Alice Doe",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func somePair() models.TokenPair {
	return models.TokenPair{
		Access:  models.IssuedToken{Value: "access-jwt", JTI: "jti-a"},
		Refresh: models.IssuedToken{Value: "refresh-jwt", JTI: "jti-r"},
	}
}

type testServer struct {
	url  string
	auth *fakeAuthService
}

func newTestServer(t *testing.T, auth *fakeAuthService, searches *fakeSearchService, routes *fakeRouteService) testServer {
	t.Helper()

	if auth == nil {
		auth = &fakeAuthService{user: someUser(), pair: somePair()}
	}
	if searches == nil {
		searches = &fakeSearchService{}
	}
	if routes == nil {
		routes = &fakeRouteService{}
	}

	h := NewRouter(auth, searches, routes, logger.NewNoOp())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return testServer{url: srv.URL, auth: auth}
}

func doRequest(t *testing.T, method string, url string, body string, headers map[string]string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(respBody)
}

func Test_HandleRegister(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, nil)

		data := `{"email": "alice@example.com", "password": "StrongEnoughPassword", "full_name": "Alice Doe"}`
		code, body := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/register", data, nil)

		require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"id": "user-1",
				"email": "alice@example.com",
				"full_name": "Alice Doe",
				"created_at": "2025-06-01T12:00:00Z"
			}`, body)
	})

	t.Run("conflict", func(t *testing.T) {
		ts := newTestServer(t, &fakeAuthService{err: apperrors.ErrUserAlreadyExists}, nil, nil)

		data := `{"email": "alice@example.com", "password": "StrongEnoughPassword", "full_name": "Alice Doe"}`
		code, body := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/register", data, nil)

		require.Equal(t, http.StatusConflict, code)
		require.JSONEq(t, `
			{
				"error": "service_error",
				"message": "User already exists"
			}`, body)
	})

	t.Run("validation failed on bad email", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, nil)

		data := `{"email": "not-an-email", "password": "StrongEnoughPassword", "full_name": "Alice Doe"}`
		code, body := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/register", data, nil)

		require.Equal(t, http.StatusBadRequest, code)
		require.Contains(t, body, "validation_failed")
		require.Contains(t, body, `"email"`, "field errors should be reported by json tag")
	})

	t.Run("store down is 503", func(t *testing.T) {
		err := fmt.Errorf("%w: mongo gone", apperrors.ErrStoreUnavailable)
		ts := newTestServer(t, &fakeAuthService{err: err}, nil, nil)

		data := `{"email": "alice@example.com", "password": "StrongEnoughPassword", "full_name": "Alice Doe"}`
		code, _ := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/register", data, nil)

		require.Equal(t, http.StatusServiceUnavailable, code)
	})
}

func Test_HandleLogin(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, nil)

		data := `{"email": "alice@example.com", "password": "StrongEnoughPassword"}`
		code, body := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/login", data, nil)

		require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"access_token": "access-jwt",
				"refresh_token": "refresh-jwt",
				"token_type": "bearer"
			}`, body)
	})

	t.Run("wrong password", func(t *testing.T) {
		ts := newTestServer(t, &fakeAuthService{err: apperrors.ErrUnauthorized}, nil, nil)

		data := `{"email": "alice@example.com", "password": "WrongPassword"}`
		code, body := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/login", data, nil)

		require.Equal(t, http.StatusUnauthorized, code)
		require.JSONEq(t, `
			{
				"error": "service_error",
				"message": "Invalid email or password"
			}`, body)
	})
}

func Test_HandleTokenRefresh(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, nil)

		code, body := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/refresh", "", map[string]string{
			"Authorization": "Bearer refresh-jwt",
		})

		require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
		require.Contains(t, body, "access-jwt")
	})

	t.Run("missing header", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, nil)

		code, _ := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/refresh", "", nil)

		require.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("rotated token rejected", func(t *testing.T) {
		ts := newTestServer(t, &fakeAuthService{err: apperrors.ErrUnauthorized}, nil, nil)

		code, _ := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/refresh", "", map[string]string{
			"Authorization": "Bearer already-rotated",
		})

		require.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("store down is 503 not 401", func(t *testing.T) {
		err := fmt.Errorf("%w: redis gone", apperrors.ErrStoreUnavailable)
		ts := newTestServer(t, &fakeAuthService{err: err}, nil, nil)

		code, _ := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/refresh", "", map[string]string{
			"Authorization": "Bearer refresh-jwt",
		})

		require.Equal(t, http.StatusServiceUnavailable, code)
	})
}

func Test_HandleLogout(t *testing.T) {
	t.Parallel()

	t.Run("always ok", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, nil)

		tests := []map[string]string{
			{"Authorization": "Bearer refresh-jwt"},
			{"Authorization": "Bearer garbage"},
			{}, // no header at all
		}
		for _, headers := range tests {
			code, body := doRequest(t, http.MethodPost, ts.url+"/api/v1/auth/logout", "", headers)

			require.Equal(t, http.StatusOK, code)
			require.JSONEq(t, `{"message": "Logged out"}`, body)
		}

		require.Equal(t, []string{"refresh-jwt", "garbage"}, ts.auth.loggedOut, "only bearer tokens reach the service")
	})
}

func Test_HandleUserMe(t *testing.T) {
	t.Parallel()

	t.Run("ok with valid access token", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, nil)

		code, body := doRequest(t, http.MethodGet, ts.url+"/api/v1/auth/me", "", map[string]string{
			"Authorization": "Bearer valid-access",
		})

		require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"id": "user-1",
				"email": "alice@example.com",
				"full_name": "Alice Doe",
				"created_at": "2025-06-01T12:00:00Z"
			}`, body)
	})

	t.Run("unauthorized without token", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, nil)

		code, _ := doRequest(t, http.MethodGet, ts.url+"/api/v1/auth/me", "", nil)

		require.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("unauthorized with refresh token", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, nil)

		code, _ := doRequest(t, http.MethodGet, ts.url+"/api/v1/auth/me", "", map[string]string{
			"Authorization": "Bearer refresh-jwt",
		})

		require.Equal(t, http.StatusUnauthorized, code)
	})
}
