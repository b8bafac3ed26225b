// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: New opens the database, builds the
// services and handlers on top of it and maps URLs onto them. main.go stays
// minimal, and tests can build a complete server around an in-memory
// database without listening on a port.
//
// DEPENDENCY FLOW:
//
//	config.Config → sqlite.DB → services → handlers → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"

	"github.com/sakif/recipe-api/internal/auth"
	"github.com/sakif/recipe-api/internal/config"
	"github.com/sakif/recipe-api/internal/handler"
	"github.com/sakif/recipe-api/internal/middleware"
	sqliteRepo "github.com/sakif/recipe-api/internal/repository/sqlite"
	"github.com/sakif/recipe-api/internal/service"
	"github.com/sakif/recipe-api/internal/storage"
)

// Server represents the HTTP server and all its dependencies. It owns the
// database connection and the database lock; Close releases both.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	lock   *flock.Flock
}

// New wires the whole application from cfg.
//
// A file-backed database is guarded by a "<path>.lock" file so two servers
// never write the same database.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	if cfg.Database.Path != ":memory:" {
		s.lock = flock.New(cfg.Database.Path + ".lock")
		ok, err := s.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquiring database lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("database %s is in use by another server", cfg.Database.Path)
		}
	}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		s.unlock()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close closes the database and releases the lock.
func (s *Server) Close() error {
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	s.unlock()
	return err
}

func (s *Server) unlock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release database lock", slog.String("error", err.Error()))
	}
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST       /api/user/create                       → register
//	POST       /api/user/token                        → email/password → token
//	GET|PATCH  /api/user/me                           → own profile        (auth)
//	GET|POST   /api/recipe/tags                       → tags               (auth)
//	GET|POST   /api/recipe/ingredients                → ingredients        (auth)
//	GET|POST   /api/recipe/recipes                    → recipes            (auth)
//	GET|PUT|PATCH|DELETE /api/recipe/recipes/{id}     → one recipe         (auth)
//	POST       /api/recipe/recipes/{id}/upload-image  → recipe image       (auth)
//	GET        /auth/github/login, /auth/github/callback (when configured)
//	POST       /auth/logout
//	GET        /media/*                               → uploaded images
//	GET        /healthz
//
// Trailing slashes are stripped before routing, so "/api/recipe/recipes/"
// and "/api/recipe/recipes" are the same route.
func (s *Server) setupRoutes() error {
	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.StripSlashes)

	// === Dependencies ===
	media, err := storage.New(s.config.Server.MediaRoot, s.config.Server.MediaURL)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.TokenTTL())
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)

	userService := service.NewUserService(s.db, passwords, tokens, s.logger)
	tagService := service.NewTagService(s.db, s.logger)
	ingredientService := service.NewIngredientService(s.db, s.logger)
	recipeService := service.NewRecipeService(s.db, s.db, s.db, media, s.logger)

	userHandler := handler.NewUserHandler(userService, s.logger)
	tagHandler := handler.NewTagHandler(tagService, s.logger)
	ingredientHandler := handler.NewIngredientHandler(ingredientService, s.logger)
	recipeHandler := handler.NewRecipeHandler(recipeService, media.URL, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db)

	// === API Routes ===
	s.router.Route("/api/user", func(r chi.Router) {
		r.Post("/create", userHandler.HandleCreate)
		r.Post("/token", userHandler.HandleToken)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", userHandler.HandleMe)
			r.Put("/me", userHandler.HandleUpdateMe)
			r.Patch("/me", userHandler.HandleUpdateMe)
		})
	})

	s.router.Route("/api/recipe", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/tags", tagHandler.HandleList)
		r.Post("/tags", tagHandler.HandleCreate)

		r.Get("/ingredients", ingredientHandler.HandleList)
		r.Post("/ingredients", ingredientHandler.HandleCreate)

		r.Get("/recipes", recipeHandler.HandleList)
		r.Post("/recipes", recipeHandler.HandleCreate)
		r.Get("/recipes/{id}", recipeHandler.HandleGet)
		r.Put("/recipes/{id}", recipeHandler.HandleUpdate)
		r.Patch("/recipes/{id}", recipeHandler.HandlePatch)
		r.Delete("/recipes/{id}", recipeHandler.HandleDelete)
		r.Post("/recipes/{id}/upload-image", recipeHandler.HandleUploadImage)
	})

	// === GitHub login ===
	var github handler.GitHubExchanger
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(
			s.config.GitHub.ClientID,
			s.config.GitHub.ClientSecret,
			s.config.GitHub.CallbackURL,
		)
	}
	authHandler := handler.NewAuthHandler(github, userService, tokens.TTL(), s.logger)
	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	// === Media & health ===
	mediaPrefix := s.config.Server.MediaURL
	s.router.Handle(mediaPrefix+"*", noSniff(http.StripPrefix(mediaPrefix,
		http.FileServer(filesOnly{http.Dir(media.Root())}))))

	s.router.Get("/healthz", handler.HandleHealth(s.db, s.logger))

	return nil
}

// noSniff stops browsers from second-guessing the Content-Type of media
// files. Uploads are user content served from the API's own origin.
func noSniff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// filesOnly hides directories so the media server never lists them.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Close the database and release its lock
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Database.Path),
			slog.String("media", s.config.Server.MediaRoot),
			slog.Bool("githubLogin", s.config.GitHub.Enabled()),
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
