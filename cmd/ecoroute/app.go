package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/osavchenko/ecoroute/internal/handlers"
	"github.com/osavchenko/ecoroute/internal/logger"
	"github.com/osavchenko/ecoroute/internal/repository/mongostore"
	"github.com/osavchenko/ecoroute/internal/repository/redisstore"
	"github.com/osavchenko/ecoroute/internal/service/auth"
	"github.com/osavchenko/ecoroute/internal/service/auth/tokencodec"
	"github.com/osavchenko/ecoroute/internal/service/mapbox"
	"github.com/osavchenko/ecoroute/internal/service/route"
	"github.com/osavchenko/ecoroute/internal/service/search"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to mongo and prepare collections
	mongoClient, err := mongostore.Connect(ctx, c.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to mongo. Err: %w", err)
	}
	storage := mongostore.NewStorage(mongoClient.Database(c.MongoDBName))
	if err := storage.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("error while ensuring mongo indexes. Err: %w", err)
	}

	// Connect to redis for refresh sessions
	redisClient, err := redisstore.Connect(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}
	sessions := redisstore.NewRefreshSessionStore(redisClient)

	// Initialize services
	codec, err := tokencodec.New(tokencodec.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{Logger: log}, codec, storage.User(), sessions)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	searchService, err := search.NewService(search.Config{Logger: log}, storage.Search())
	if err != nil {
		return nil, fmt.Errorf("error while creating search service. Err: %w", err)
	}

	mapboxClient := mapbox.NewClient(c.MapboxToken, mapbox.Config{Logger: log})
	routeService, err := route.NewService(route.Config{Logger: log}, mapboxClient, storage.Search())
	if err != nil {
		return nil, fmt.Errorf("error while creating route service. Err: %w", err)
	}

	mux := handlers.NewRouter(authService, searchService, routeService, log)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     log,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
