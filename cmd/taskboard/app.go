package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/taskboard/internal/db"
	"github.com/nkiryanov/taskboard/internal/handlers"
	"github.com/nkiryanov/taskboard/internal/handlers/middleware"
	"github.com/nkiryanov/taskboard/internal/logger"
	"github.com/nkiryanov/taskboard/internal/repository/postgres"
	"github.com/nkiryanov/taskboard/internal/service/auth"
	"github.com/nkiryanov/taskboard/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/taskboard/internal/service/task"
	"github.com/nkiryanov/taskboard/internal/service/user"
	"github.com/nkiryanov/taskboard/internal/sweeper"
)

type ServerApp struct {
	ListenAddr  string
	Handler     http.Handler
	Sweeper     *sweeper.Sweeper
	RateLimiter *middleware.RateLimiter

	logger logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	// The pool handle is owned here and passed down, no package level globals
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     tokenmanager.ParseTTL(c.AccessTTL, 0),
		RefreshTTL:    tokenmanager.ParseTTL(c.RefreshTTL, 0),
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{BcryptCost: c.BcryptCost}, tokenManager, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	taskService, err := task.NewService(storage.Task())
	if err != nil {
		return nil, fmt.Errorf("error while creating task service. Err: %w", err)
	}
	userService, err := user.NewService(storage.User())
	if err != nil {
		return nil, fmt.Errorf("error while creating user service. Err: %w", err)
	}

	// Initialize background sweep of expired refresh tokens
	tokenSweeper, err := sweeper.New(sweeper.Config{Schedule: c.SweepSchedule}, storage.Refresh(), l)
	if err != nil {
		return nil, fmt.Errorf("error while creating token sweeper. Err: %w", err)
	}

	// Initialize handlers and middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerWindow: c.RateLimitPerMin,
		WindowDuration:    time.Minute,
		BurstSize:         c.RateLimitPerMin / 3,
	})
	mux := handlers.NewRouter(handlers.RouterConfig{
		Auth:             handlers.NewAuth(authService, userService, l),
		Task:             handlers.NewTask(taskService, l),
		Admin:            handlers.NewAdmin(userService, taskService, l),
		AuthMiddleware:   middleware.NewAuth(authService),
		RateLimiter:      rateLimiter,
		LoggerMiddleware: middleware.LoggerMiddleware(l),
	})

	return &ServerApp{
		ListenAddr:  c.ListenAddr,
		Handler:     mux,
		Sweeper:     tokenSweeper,
		RateLimiter: rateLimiter,
		logger:      l,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	if err := s.Sweeper.Start(ctx); err != nil {
		return fmt.Errorf("error while starting token sweeper. Err: %w", err)
	}

	// Evict idle rate limiter buckets in the background
	s.RateLimiter.StartCleanup(ctx)

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

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
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
