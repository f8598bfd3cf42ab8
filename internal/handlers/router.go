package handlers

import (
	"context"
	"net/http"

	"github.com/osavchenko/ecoroute/internal/handlers/middleware"
	"github.com/osavchenko/ecoroute/internal/logger"
	"github.com/osavchenko/ecoroute/internal/models"
	"github.com/osavchenko/ecoroute/internal/service/route"
	"github.com/osavchenko/ecoroute/internal/service/search"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	searchService searchService,
	routeService routeService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiv1 := http.NewServeMux()

	apiv1.Handle("POST /auth/register", handleRegister(authService, logger))
	apiv1.Handle("POST /auth/login", handleLogin(authService, logger))
	apiv1.Handle("POST /auth/refresh", handleTokenRefresh(authService, logger))
	apiv1.Handle("POST /auth/logout", handleLogout(authService))
	apiv1.Handle("GET /auth/me", withAuth(handleUserMe()))

	apiv1.Handle("GET /searches", withAuth(handleListSearches(searchService, logger)))
	apiv1.Handle("GET /searches/stats", withAuth(handleSearchStats(searchService, logger)))
	apiv1.Handle("GET /searches/{id}", withAuth(handleGetSearch(searchService, logger)))
	apiv1.Handle("DELETE /searches/{id}", withAuth(handleDeleteSearch(searchService, logger)))

	apiv1.Handle("POST /routes/calculate", withAuth(handleCalculateRoute(routeService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", apiv1))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register new user
	// Has to return apperrors.ErrUserAlreadyExists if the email is taken
	Register(ctx context.Context, email string, password string, fullName string) (models.User, error)

	// Login with email and password, both failures look like apperrors.ErrUnauthorized
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Refresh rotates the refresh token, any token failure is apperrors.ErrUnauthorized
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)

	// Logout revokes the session, best effort
	Logout(ctx context.Context, refreshToken string)

	// Authenticate resolves the user behind an access token
	Authenticate(ctx context.Context, accessToken string) (models.User, error)
}

type searchService interface {
	List(ctx context.Context, userID string, req search.ListRequest) (search.Page, error)
	Get(ctx context.Context, id string, userID string) (models.Search, error)
	Delete(ctx context.Context, id string, userID string) error
	Stats(ctx context.Context, userID string) (models.SearchStats, error)
}

type routeService interface {
	Calculate(ctx context.Context, userID string, req route.CalculateRequest) (route.Comparison, error)
}
