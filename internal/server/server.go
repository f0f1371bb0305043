// Package server wires the application together: database, cache,
// services, handlers and the chi route tree. main.go stays minimal; every
// dependency is assembled here in one place.
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

	"github.com/aaditya248659/Code-Snippet-Library/internal/auth"
	"github.com/aaditya248659/Code-Snippet-Library/internal/cache"
	"github.com/aaditya248659/Code-Snippet-Library/internal/executor"
	"github.com/aaditya248659/Code-Snippet-Library/internal/handler"
	"github.com/aaditya248659/Code-Snippet-Library/internal/mail"
	"github.com/aaditya248659/Code-Snippet-Library/internal/middleware"
	sqliteRepo "github.com/aaditya248659/Code-Snippet-Library/internal/repository/sqlite"
	"github.com/aaditya248659/Code-Snippet-Library/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	RedisAddr string // empty disables the leaderboard cache
	ClientURL string // frontend origin, used for CORS and redirect targets

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	cache  *cache.Redis // nil when Redis is not configured
}

// New assembles the full dependency chain. exec may be nil; the execute
// endpoint then answers 503 but everything else works.
func New(cfg Config, logger *slog.Logger, exec executor.Executor) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring token service: %w", err)
	}

	// The cache is strictly optional: a Redis that is down at boot just
	// means uncached leaderboards.
	var redisCache *cache.Redis
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err = cache.NewRedis(ctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			logger.Warn("Redis unavailable, leaderboard caching disabled",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", err.Error()))
			redisCache = nil
		}
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		cache:  redisCache,
	}
	s.setupRoutes(tokens, exec)
	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService, exec executor.Executor) {
	// Services share the one sqlite.DB, which implements every repository
	// interface.
	game := service.NewGamificationService(s.db, s.cache, s.logger)
	snippetSvc := service.NewSnippetService(s.db, s.db, game, s.logger)
	forkSvc := service.NewForkService(s.db, s.db, s.db, game, s.logger)
	userSvc := service.NewUserService(s.db, s.db, game, s.logger)
	analyticsSvc := service.NewAnalyticsService(s.db, s.db, s.logger)
	authSvc := service.NewAuthService(s.db, tokens, auth.NewPasswordService(),
		mail.NewLogMailer(s.logger), s.config.ClientURL, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(s.config.GitHubClientID,
			s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	} else {
		s.logger.Warn("GitHub OAuth not configured, social login disabled")
	}

	authHandler := handler.NewAuthHandler(authSvc, github, s.config.ClientURL, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetSvc, s.logger)
	playgroundHandler := handler.NewPlaygroundHandler(exec, forkSvc, s.logger)
	userHandler := handler.NewUserHandler(userSvc, snippetSvc, s.logger)
	gameHandler := handler.NewGamificationHandler(game, userSvc, s.logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc, s.logger)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.CORS(s.config.ClientURL))

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"name":"code-snippet-library","api":"/api"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"status":"ok"}`))
	})

	// The OAuth flow lives outside /api: GitHub redirects the browser here.
	r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Post("/forgot-password", authHandler.HandleForgotPassword)
			r.Post("/reset-password/{token}", authHandler.HandleResetPassword)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/snippets", func(r chi.Router) {
			r.Get("/", snippetHandler.HandleList)
			r.Get("/{id}", snippetHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/submit", snippetHandler.HandleSubmit)
				r.Put("/{id}", snippetHandler.HandleUpdate)
				r.Delete("/{id}", snippetHandler.HandleDelete)
				r.Delete("/user/{id}", snippetHandler.HandleDelete)
				r.Get("/pending/all", snippetHandler.HandlePending)
				r.Patch("/approve/{id}", snippetHandler.HandleApprove)
				r.Patch("/reject/{id}", snippetHandler.HandleReject)
				r.Patch("/upvote/{id}", snippetHandler.HandleUpvote)
				r.Patch("/favorite/{id}", snippetHandler.HandleFavorite)
				r.Post("/{id}/comment", snippetHandler.HandleAddComment)
				r.Delete("/{id}/comment/{commentID}", snippetHandler.HandleDeleteComment)
			})
		})

		r.Route("/playground", func(r chi.Router) {
			r.Post("/execute", playgroundHandler.HandleExecute)
			r.Get("/forks/{id}", playgroundHandler.HandleListForks)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/fork", playgroundHandler.HandleFork)
				r.Patch("/fork/{id}/vote", playgroundHandler.HandleVoteFork)
				r.Patch("/fork/{id}/accept", playgroundHandler.HandleAcceptFork)
				r.Patch("/fork/{id}/reject", playgroundHandler.HandleRejectFork)
				r.Delete("/fork/{id}", playgroundHandler.HandleDeleteFork)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(requireAuth).Get("/me/favorites", userHandler.HandleFavorites)
			r.With(requireAuth).Patch("/me/profile", userHandler.HandleUpdateProfile)
			r.Get("/{username}", userHandler.HandleProfile)
			r.With(optionalAuth).Get("/{username}/snippets", userHandler.HandleUserSnippets)
		})

		r.Route("/gamification", func(r chi.Router) {
			r.Get("/leaderboard", gameHandler.HandleLeaderboard)
			r.Get("/badges", gameHandler.HandleBadges)
			r.Get("/stats/{username}", gameHandler.HandleStats)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/overview", analyticsHandler.HandleOverview)
			r.Get("/language-distribution", analyticsHandler.HandleLanguageDistribution)
			r.Get("/user/{username}/chart", analyticsHandler.HandleUserChart)
		})
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the cache and the database.
func (s *Server) Start() error {
	defer s.db.Close()
	if s.cache != nil {
		defer s.cache.Close()
	}

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
