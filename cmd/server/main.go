// Command server runs the code snippet library API.
//
// Configuration comes from the environment:
//
//	PORT                  listen port (default 8080)
//	DB_PATH               SQLite file (default data/snippets.db)
//	JWT_SECRET            HMAC secret for session tokens (required)
//	REDIS_ADDR            Redis address; empty disables leaderboard caching
//	CLIENT_URL            frontend origin (default http://localhost:5173)
//	EXECUTOR              "piston" (default) or "docker"
//	PISTON_URL            Piston engine base URL (default public instance)
//	GITHUB_CLIENT_ID      GitHub OAuth app credentials; empty disables
//	GITHUB_CLIENT_SECRET  social login
//	GITHUB_CALLBACK_URL   OAuth callback (default derived from PORT)
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aaditya248659/Code-Snippet-Library/internal/executor"
	"github.com/aaditya248659/Code-Snippet-Library/internal/executor/docker"
	"github.com/aaditya248659/Code-Snippet-Library/internal/executor/piston"
	"github.com/aaditya248659/Code-Snippet-Library/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
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

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required, e.g. JWT_SECRET=$(openssl rand -hex 32)")
		os.Exit(1)
	}

	dbPath := getEnvDefault("DB_PATH", "data/snippets.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	callbackURL := os.Getenv("GITHUB_CALLBACK_URL")
	if callbackURL == "" {
		callbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	// The execution backend is swappable: Piston proxies to a remote engine,
	// Docker runs code in local sandbox containers. Either may be absent;
	// the API degrades to 503 on the execute endpoint.
	var exec executor.Executor
	switch getEnvDefault("EXECUTOR", "piston") {
	case "docker":
		dockerExec, err := docker.New(docker.DefaultConfig(), logger)
		if err != nil {
			logger.Warn("Docker executor unavailable, code execution disabled",
				slog.String("error", err.Error()))
		} else {
			defer dockerExec.Close()
			exec = dockerExec
		}
	default:
		exec = piston.New(os.Getenv("PISTON_URL"), logger)
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		ClientURL:          getEnvDefault("CLIENT_URL", "http://localhost:5173"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  callbackURL,
	}

	srv, err := server.New(cfg, logger, exec)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
