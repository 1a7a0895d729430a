// Package server wires the application together: router, middleware, page
// guard and the dependency chain from database to handlers. main.go only
// reads configuration and calls Start.
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

	"github.com/advyta/dashboard/internal/auth"
	"github.com/advyta/dashboard/internal/dashboard"
	"github.com/advyta/dashboard/internal/handler"
	"github.com/advyta/dashboard/internal/middleware"
	"github.com/advyta/dashboard/internal/provider"
	sqliteRepo "github.com/advyta/dashboard/internal/repository/sqlite"
	"github.com/advyta/dashboard/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port        int
	DBPath      string
	TokenSecret string
	// CookieSecure marks the session cookie Secure; set it when serving
	// over HTTPS.
	CookieSecure bool

	OpenWeatherKey string
	NewsDataKey    string
	GeoapifyKey    string
	// GitHubPAT is optional; unauthenticated search works with a lower
	// rate limit.
	GitHubPAT string
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the dependency chain: database → services → handlers →
// routes. Each layer receives only the layer below it.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.Connect(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Router exposes the configured router, mainly for tests that drive the
// full stack through httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.TokenSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	cookies := auth.CookieConfig{Secure: s.config.CookieSecure}

	authSvc := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	authHandler := handler.NewAuthHandler(authSvc, tokens, cookies, s.logger)

	widgets := dashboard.NewService(
		provider.NewOpenWeather(provider.OpenWeatherBaseURL, s.config.OpenWeatherKey),
		provider.NewNewsData(provider.NewsDataBaseURL, s.config.NewsDataKey),
		provider.NewGeoapify(provider.GeoapifyBaseURL, s.config.GeoapifyKey),
		provider.NewGitHub(provider.GitHubBaseURL, s.config.GitHubPAT),
		s.logger,
	)
	widgetHandler := handler.NewWidgetHandler(widgets, s.logger)

	pages, err := handler.NewPageHandler(s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	// Pages sit behind the guard: anonymous users are pushed to /login,
	// authenticated ones away from the public pages.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.PageGuard(tokens))
		r.Get("/", pages.HandleHome)
		r.Get("/login", pages.HandleLogin)
		r.Get("/signup", pages.HandleSignup)
		r.Get("/dashboard", pages.HandleDashboard)
		r.Get("/profile", pages.HandleProfile)
	})

	// Credential endpoints get a per-IP limiter: a burst of 5, then one
	// request per two seconds.
	limiter := middleware.NewRateLimiter(0.5, 5)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(limiter.Limit).Post("/login", authHandler.HandleLogin)
			r.With(limiter.Limit).Post("/signup", authHandler.HandleSignup)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/profile", authHandler.HandleGetProfile)
			r.Put("/profile", authHandler.HandleUpdateProfile)
			r.Get("/weather", widgetHandler.HandleWeather)
			r.Get("/news", widgetHandler.HandleNews)
			r.Get("/geocode", widgetHandler.HandleGeocode)
		})
		r.Get("/github/trending", widgetHandler.HandleTrending)
		r.With(auth.RequireAuth(tokens)).Get("/dashboard", widgetHandler.HandleDashboard)
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests, close the database.
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
