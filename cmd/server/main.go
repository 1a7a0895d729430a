// Package main is the entry point for the dashboard server. It reads
// configuration, builds the logger and hands off to internal/server.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/advyta/dashboard/internal/server"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the environment itself.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", slog.String("error", err.Error()))
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
		port = p
	}

	dbPath := "data/dashboard.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	tokenSecret := os.Getenv("TOKEN_SECRET")
	if tokenSecret == "" {
		logger.Error("TOKEN_SECRET is required (at least 16 characters)")
		os.Exit(1)
	}

	// Widget API keys are optional: a missing key degrades that widget
	// only, the rest of the dashboard keeps working.
	for _, key := range []string{"OPENWEATHER_API_KEY", "NEWSDATA_API_KEY", "GEOAPIFY_API_KEY"} {
		if os.Getenv(key) == "" {
			logger.Warn("widget API key not set; that widget will report an error", slog.String("key", key))
		}
	}

	cfg := server.Config{
		Port:           port,
		DBPath:         dbPath,
		TokenSecret:    tokenSecret,
		CookieSecure:   os.Getenv("COOKIE_SECURE") == "true",
		OpenWeatherKey: os.Getenv("OPENWEATHER_API_KEY"),
		NewsDataKey:    os.Getenv("NEWSDATA_API_KEY"),
		GeoapifyKey:    os.Getenv("GEOAPIFY_API_KEY"),
		GitHubPAT:      os.Getenv("GITHUB_PAT"),
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

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
