// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the "composition root": the one place where the dependency chain
// is assembled —
//
//	config → sqlite.DB → services → handlers → routes
//
// and where the gate middlewares are stacked onto routes. Gate ORDER is
// load-bearing: RequireAdmin reads claims that RequireAuth puts into the
// context, so every admin route is wired RequireAuth first, RequireAdmin
// second. The route groups below make that ordering structural rather than
// something each route repeats by hand.
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

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/handler"
	"github.com/sakif/blog-api/internal/middleware"
	sqliteRepo "github.com/sakif/blog-api/internal/repository/sqlite"
	"github.com/sakif/blog-api/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires the full dependency graph and returns a ready-to-start Server.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(cfg.BcryptCost)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, passwords)

	return s, nil
}

// Handler exposes the router, mainly for httptest in router-level tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start's
// shutdown path. Used by tests.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// Route table (gates in brackets):
//
//	POST   /users/register                      public
//	POST   /users/login                         public
//	POST   /users/check-email                   public
//	GET    /users/details                       [auth]
//	PATCH  /users/update-password               [auth]
//	PUT    /users/profile                       [auth]
//	PATCH  /users/{id}/set-as-admin             [auth, admin]
//	GET    /users/all                           [auth, admin]
//	POST   /posts                               [auth]
//	GET    /posts/all                           public or [auth, admin] — config
//	GET    /posts/active                        public
//	GET    /posts/{id}                          public
//	POST   /posts/search-by-title               public
//	POST   /posts/search-by-content             public
//	PATCH  /posts/{id}/update                   [auth, admin]
//	PATCH  /posts/{id}/activate                 [auth, admin]
//	PATCH  /posts/{id}/archive                  [auth, admin]
//	DELETE /posts/{id}/delete                   [auth, admin]
//	POST   /posts/{id}/comments                 [auth]
//	PATCH  /posts/{id}/comments/{commentId}     [auth]
//	DELETE /posts/{id}/comments/{commentId}     [auth, admin]
func (s *Server) setupRoutes(tokens *auth.TokenService, passwords *auth.PasswordService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	userService := service.NewUserService(s.db, tokens, passwords, s.logger)
	postService := service.NewPostService(s.db, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleLogin)
		r.Post("/check-email", userHandler.HandleCheckEmail)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/details", userHandler.HandleDetails)
			r.Patch("/update-password", userHandler.HandleUpdatePassword)
			r.Put("/profile", userHandler.HandleUpdateProfile)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, auth.RequireAdmin)
			r.Patch("/{id}/set-as-admin", userHandler.HandleSetAdmin)
			r.Get("/all", userHandler.HandleListAll)
		})
	})

	s.router.Route("/posts", func(r chi.Router) {
		r.Get("/active", postHandler.HandleListActive)
		r.Get("/{id}", postHandler.HandleGetByID)
		r.Post("/search-by-title", postHandler.HandleSearchByTitle)
		r.Post("/search-by-content", postHandler.HandleSearchByContent)

		// Whether the full listing (archived posts included) is public is a
		// deployment decision, so it comes from config instead of being
		// hard-coded either way.
		if s.config.PublicPostList {
			r.Get("/all", postHandler.HandleListAll)
		} else {
			r.With(requireAuth, auth.RequireAdmin).Get("/all", postHandler.HandleListAll)
		}

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", postHandler.HandleCreate)
			r.Post("/{id}/comments", postHandler.HandleAddComment)
			r.Patch("/{id}/comments/{commentId}", postHandler.HandleEditComment)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, auth.RequireAdmin)
			r.Patch("/{id}/update", postHandler.HandleUpdate)
			r.Patch("/{id}/activate", postHandler.HandleActivate)
			r.Patch("/{id}/archive", postHandler.HandleArchive)
			r.Delete("/{id}/delete", postHandler.HandleDelete)
			r.Delete("/{id}/comments/{commentId}", postHandler.HandleDeleteComment)
		})
	})
}

// Start runs the HTTP server and blocks until a shutdown signal or a server
// error. Shutdown order: stop accepting connections, let in-flight requests
// finish (30s budget), then close the database.
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
