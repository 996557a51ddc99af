// Package main is the entry point for the ResolveIt API server.
//
// main's job is deliberately small: read configuration from the
// environment, build the logger, hand both to the server package, and
// exit non-zero if anything fails. All real logic lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sravansai-26/resolveit-sub001/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/resolveit.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// THE ONE FATAL CONFIG ERROR:
	// JWT_SECRET signs every session token. Starting without it would mean
	// either unsigned tokens or a predictable default — both indefensible.
	// So unlike every other setting, there is no fallback: missing secret,
	// no server. Generate one with: openssl rand -hex 32
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is not set — refusing to start without a signing secret")
		os.Exit(1)
	}

	tokenTTL := time.Duration(0) // 0 → server default (7 days)
	if ttlStr := os.Getenv("JWT_TTL"); ttlStr != "" {
		var err error
		tokenTTL, err = time.ParseDuration(ttlStr)
		if err != nil {
			logger.Error("invalid JWT_TTL value", slog.String("value", ttlStr))
			os.Exit(1)
		}
	}

	// Google sign-in is optional. Unset GOOGLE_CLIENT_ID → the Google
	// routes are not registered and local email/password auth still works.
	googleClientID := os.Getenv("GOOGLE_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	googleRedirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if googleClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set — Google sign-in is disabled")
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		TokenTTL:           tokenTTL,
		GoogleClientID:     googleClientID,
		GoogleClientSecret: googleClientSecret,
		GoogleRedirectURL:  googleRedirectURL,
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// logLevel reads LOG_LEVEL (debug, info, warn, error), defaulting to info.
func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
