// Package server sets up the HTTP server, router, and route definitions.
//
// This is the composition root: every dependency — database, token
// service, password hasher, Google verifier, services, handlers — is
// constructed and wired here, in one place, instead of scattered across
// the codebase. main.go only supplies the Config and the logger.
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

	"github.com/sravansai-26/resolveit-sub001/internal/auth"
	"github.com/sravansai-26/resolveit-sub001/internal/handler"
	"github.com/sravansai-26/resolveit-sub001/internal/middleware"
	sqliteRepo "github.com/sravansai-26/resolveit-sub001/internal/repository/sqlite"
	"github.com/sravansai-26/resolveit-sub001/internal/service"
)

// Config holds server configuration, loaded from the environment by main.go.
type Config struct {
	Port   int
	DBPath string

	// JWTSecret signs every session token. main.go refuses to start when
	// it is empty — there is no insecure fallback.
	JWTSecret string
	// TokenTTL is how long issued tokens stay valid. Zero selects the
	// package default (7 days).
	TokenTTL time.Duration

	// Google sign-in. ClientID alone enables the credential-POST flow;
	// secret + redirect URL additionally enable the redirect flow.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires the full dependency graph:
//
//	sqlite.DB → stores → services → handlers → routes
//
// Construction order matters only in that the token service is validated
// first: a bad JWT secret must fail here, before any network listener
// exists, not on the first login.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("configuring token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Google sign-in is optional: without a client ID the endpoints are
	// simply not registered and local auth still works.
	var google *auth.GoogleVerifier
	if cfg.GoogleClientID != "" {
		google, err = auth.NewGoogleVerifier(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring google sign-in: %w", err)
		}
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes(tokens, google)

	return s, nil
}

// setupRoutes wires middleware, services, and handlers to paths.
//
// ROUTE MAP:
//
//	POST   /api/auth/register      → local signup
//	POST   /api/auth/login         → local login
//	POST   /api/auth/google        → Google credential sign-in
//	POST   /api/auth/logout        → stateless logout
//	GET    /auth/google/login      → Google redirect flow (if configured)
//	GET    /auth/google/callback
//	GET    /api/me                 → current account        [guarded]
//	PUT    /api/me                 → profile update         [guarded]
//	GET    /api/issues[/{id}]      → public reads
//	POST   /api/issues             → report issue           [guarded]
//	PUT    /api/issues/{id}        → update own issue       [guarded]
//	DELETE /api/issues/{id}        → delete own issue       [guarded]
//	GET    /api/feedback           → public list
//	POST   /api/feedback           → leave feedback         [guarded]
func (s *Server) setupRoutes(tokens *auth.TokenService, google *auth.GoogleVerifier) {
	// Global middleware — runs on every request, in order.
	s.router.Use(chimiddleware.RequestID) // X-Request-ID for tracing
	s.router.Use(chimiddleware.RealIP)    // real client IP behind proxies
	s.router.Use(chimiddleware.Recoverer) // panics become 500s, not crashes
	s.router.Use(middleware.Logger(s.logger))

	users := s.db.Users()

	authService := service.NewAuthService(users, tokens, auth.NewPasswordService(), google, s.logger)
	issueService := service.NewIssueService(s.db.Issues(), s.logger)
	feedbackService := service.NewFeedbackService(s.db.Feedback(), s.logger)

	authHandler := handler.NewAuthHandler(authService, google, s.logger)
	issueHandler := handler.NewIssueHandler(issueService, s.logger)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, s.logger)

	requireAuth := auth.RequireAuth(tokens, users, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/google", authHandler.HandleGoogleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		// Public reads.
		r.Get("/issues", issueHandler.HandleList)
		r.Get("/issues/{id}", issueHandler.HandleGetByID)
		r.Get("/feedback", feedbackHandler.HandleList)

		// Everything in this group goes through the session guard.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", authHandler.HandleMe)
			r.Put("/me", authHandler.HandleUpdateMe)

			r.Post("/issues", issueHandler.HandleCreate)
			r.Put("/issues/{id}", issueHandler.HandleUpdate)
			r.Delete("/issues/{id}", issueHandler.HandleDelete)

			r.Post("/feedback", feedbackHandler.HandleCreate)
		})
	})

	// Redirect flow only when fully configured.
	if google != nil && s.config.GoogleRedirectURL != "" {
		s.router.Get("/auth/google/login", authHandler.HandleGoogleRedirect)
		s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
	}
}

// Router exposes the configured router — used by tests to drive the server
// through httptest without opening a socket.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s to
// finish, close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
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
