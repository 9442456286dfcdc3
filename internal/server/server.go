// Package server wires the application together: router, middleware,
// handlers, and graceful shutdown. It is the composition root — every
// dependency chain (store -> service -> handler) is assembled in New.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aaronwittchen/Firefly/internal/auth"
	"github.com/aaronwittchen/Firefly/internal/config"
	"github.com/aaronwittchen/Firefly/internal/handler"
	"github.com/aaronwittchen/Firefly/internal/middleware"
	"github.com/aaronwittchen/Firefly/internal/repository"
	"github.com/aaronwittchen/Firefly/internal/service"
)

// Server owns the router and the store's lifecycle: the store is closed
// during graceful shutdown after in-flight requests drain.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New assembles the full dependency graph. The store is injected so main
// can pick the backend (sqlite or postgres) from the database URL, and so
// tests can hand in an in-memory store.
func New(cfg *config.Config, logger *slog.Logger, store repository.Store) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		store:  store,
	}

	s.setupRoutes(tokens)
	return s, nil
}

// Router exposes the configured router, mainly for httptest in handler
// tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(tokens *auth.TokenService) {
	github := auth.NewGitHubProvider(
		s.cfg.GitHub.ClientID,
		s.cfg.GitHub.ClientSecret,
		s.cfg.GitHub.CallbackURL,
	)

	authService := service.NewAuthService(s.store.Users(), tokens, s.logger)
	errorLogService := service.NewErrorLogService(s.store.ErrorLogs(), s.logger)
	userService := service.NewUserService(s.store.Users(), s.logger)

	authHandler := handler.NewAuthHandler(github, authService, s.cfg.Server.FrontendURL, s.logger)
	errorLogHandler := handler.NewErrorLogHandler(errorLogService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	// The API contract uses trailing-slash collection paths (/errors/);
	// StripSlashes makes both spellings hit the same route.
	s.router.Use(chimiddleware.StripSlashes)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.Server.FrontendURL, fmt.Sprintf("http://localhost:%d", s.cfg.Server.Port)},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	s.router.Get("/", handler.HandleRoot)
	s.router.Get("/health", handler.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/auth/login", authHandler.HandleLogin)
	s.router.Get("/auth/callback", authHandler.HandleCallback)

	// Everything below requires a valid bearer token resolving to an
	// existing user.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, s.store.Users()))

		r.Get("/auth/me", authHandler.HandleMe)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.HandleList)
			r.Get("/{id}", userHandler.HandleGet)
		})

		r.Route("/errors", func(r chi.Router) {
			r.Get("/", errorLogHandler.HandleList)
			r.Post("/", errorLogHandler.HandleCreate)
			r.Get("/{id}", errorLogHandler.HandleGet)
			r.Put("/{id}", errorLogHandler.HandleUpdate)
			r.Delete("/{id}", errorLogHandler.HandleDelete)
		})
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s
// budget), close the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Server.Port),
			slog.String("frontend", s.cfg.Server.FrontendURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
