// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB → UserDB/TaskDB/SubtaskDB/CategoryDB
//	           → AuthService/TaskService/SubtaskService/CategoryService
//	           → handlers → routes
//
// This is the "composition root": every dependency is built here and
// nowhere else.
package server

import (
	"context"
	"errors"
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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/todolist/internal/auth"
	"github.com/sakif/todolist/internal/config"
	"github.com/sakif/todolist/internal/handler"
	"github.com/sakif/todolist/internal/middleware"
	sqliteRepo "github.com/sakif/todolist/internal/repository/sqlite"
	"github.com/sakif/todolist/internal/service"
)

// Server owns the database connection and the router built on top of it.
// The database is closed when Start returns, or by Close when the server
// is only used as an http.Handler (tests).
type Server struct {
	router  *chi.Mux
	handler http.Handler
	config  config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB

	authService *service.AuthService
}

// New opens the database and wires every layer.
//
// SIGNING KEY:
// Tokens are signed with cfg.SecretKey. When it is empty (never in
// production, config.Validate refuses that) a random key is generated for
// this process only, so every restart invalidates issued tokens.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	secret := cfg.SecretKey
	if secret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("server: SECRET_KEY is required in production")
		}
		generated, err := auth.GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("server: generating signing key: %w", err)
		}
		secret = generated
		logger.Warn("SECRET_KEY not set; using a random signing key, tokens will not survive a restart")
	}

	tokens, err := auth.NewTokenService(secret, cfg.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.authService = service.NewAuthService(db.Users(), tokens, newPasswordService(cfg), logger)

	s.setupRoutes()

	operation := cfg.OTelServiceName
	if operation == "" {
		operation = "todolist"
	}
	s.handler = otelhttp.NewHandler(s.router, operation)

	return s, nil
}

// newPasswordService uses the production bcrypt cost everywhere except
// APP_ENV=test, where the minimum cost keeps test suites fast.
func newPasswordService(cfg config.Config) *auth.PasswordService {
	if cfg.Env == "test" {
		return auth.NewPasswordServiceForTest(4)
	}
	return auth.NewPasswordService()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                        → API banner
//	GET    /health                  → liveness + database ping
//	POST   /register                → create account (JSON)
//	POST   /login                   → access token (form)
//	GET    /auth/github/login       → GitHub sign-in (when configured)
//	GET    /auth/github/callback    → access token (when configured)
//	GET    /me                      → current user              [auth]
//	GET    /tasks                   → list with filters          [auth]
//	POST   /tasks                   → create                     [auth]
//	GET    /tasks/{id}              → one task                   [auth]
//	PUT    /tasks/{id}              → partial update             [auth]
//	DELETE /tasks/{id}              → delete with subtasks       [auth]
//	GET    /tasks/{id}/subtasks     → list                       [auth]
//	POST   /tasks/{id}/subtasks     → create                     [auth]
//	PUT    /subtasks/{id}           → partial update             [auth]
//	DELETE /subtasks/{id}           → delete                     [auth]
//	GET    /categories              → list                       [auth]
//	POST   /categories              → create                     [auth]
//	GET    /categories/{id}         → one category               [auth]
//	PUT    /categories/{id}         → partial update             [auth]
//	DELETE /categories/{id}         → delete, tasks detached     [auth]
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: the logger reads it
//  2. RealIP
//  3. Logger
//  4. Recoverer: panics become 500 and still get logged
//  5. CORS: preflight requests are answered before auth runs
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var github handler.GitHubExchanger
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	authHandler := handler.NewAuthHandler(s.authService, github, s.logger)
	taskHandler := handler.NewTaskHandler(
		service.NewTaskService(s.db.Tasks(), s.db.Categories(), s.logger), s.logger)
	subtaskHandler := handler.NewSubtaskHandler(
		service.NewSubtaskService(s.db.Subtasks(), s.logger), s.logger)
	categoryHandler := handler.NewCategoryHandler(
		service.NewCategoryService(s.db.Categories(), s.logger), s.logger)

	// === Public Routes ===
	s.router.Get("/", healthHandler.HandleRoot)
	s.router.Get("/health", healthHandler.HandleHealth)
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	// === Protected Routes ===
	// RequireAuth resolves the bearer token to a user before any of these
	// run; handlers scope every query by that user's id.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(s.authService, s.logger))

		r.Get("/me", authHandler.HandleMe)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.HandleList)
			r.Post("/", taskHandler.HandleCreate)
			r.Get("/{id}", taskHandler.HandleGet)
			r.Put("/{id}", taskHandler.HandleUpdate)
			r.Delete("/{id}", taskHandler.HandleDelete)
			r.Get("/{id}/subtasks", subtaskHandler.HandleList)
			r.Post("/{id}/subtasks", subtaskHandler.HandleCreate)
		})

		r.Put("/subtasks/{id}", subtaskHandler.HandleUpdate)
		r.Delete("/subtasks/{id}", subtaskHandler.HandleDelete)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.HandleList)
			r.Post("/", categoryHandler.HandleCreate)
			r.Get("/{id}", categoryHandler.HandleGet)
			r.Put("/{id}", categoryHandler.HandleUpdate)
			r.Delete("/{id}", categoryHandler.HandleDelete)
		})
	})
}

// Handler returns the fully wrapped router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close releases the database. Start calls it on the way out.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("env", s.config.Env),
			slog.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
