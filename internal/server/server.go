// Package server is the composition root: it builds every dependency from
// config, mounts the routes and runs the HTTP server until shutdown.
//
// DEPENDENCY FLOW:
//
//	config → sqlite.DB, cache.Redis (optional)
//	       → services (user directory, auth, messages, contacts, Q&A)
//	       → auth.Gatekeeper, realtime.Core
//	       → handlers → chi routes
//
// Handlers only see services; services only see repository interfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/qius-alx/social-network/internal/auth"
	"github.com/qius-alx/social-network/internal/cache"
	"github.com/qius-alx/social-network/internal/config"
	"github.com/qius-alx/social-network/internal/handler"
	"github.com/qius-alx/social-network/internal/middleware"
	"github.com/qius-alx/social-network/internal/realtime"
	sqliteRepo "github.com/qius-alx/social-network/internal/repository/sqlite"
	"github.com/qius-alx/social-network/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the database and cache connections; Start closes them on
// the way out.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	cache  cache.Cache
	core   *realtime.Core
}

// New wires the application. The Redis profile cache is used only when
// cfg.Redis.URL is set.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis.URL, "social:")
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		s.cache = rc
		logger.Info("profile cache enabled", slog.Duration("ttl", cfg.Redis.ProfileTTL))
	}

	if err := s.setupRoutes(); err != nil {
		s.close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	users := service.NewUserService(s.db, s.cache, s.config.Redis.ProfileTTL, s.logger)
	gate := auth.NewGatekeeper(tokens, users)

	s.core = realtime.NewCore(s.db, users, realtime.NewPresence(), s.logger)

	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	messages := service.NewMessageService(s.db, s.core, s.logger)
	contacts := service.NewContactService(s.db, s.logger)
	questions := service.NewQuestionService(s.db, s.db, s.logger)
	answers := service.NewAnswerService(s.db, s.db, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, s.config.GitHub.CallbackURL)
	}

	authHandler := handler.NewAuthHandler(authService, users, github, tokens.TTL(), s.logger)
	userHandler := handler.NewUserHandler(users, s.logger)
	contactHandler := handler.NewContactHandler(contacts, s.logger)
	messageHandler := handler.NewMessageHandler(messages, s.logger)
	questionHandler := handler.NewQuestionHandler(questions, answers, s.logger)
	answerHandler := handler.NewAnswerHandler(answers, s.logger)
	wsHandler := realtime.NewHandler(s.core, gate, realtime.HandlerOptions{
		SendBuffer:     s.config.Realtime.SendBuffer,
		EventTimeout:   s.config.Realtime.EventTimeout,
		AllowedOrigins: s.config.HTTP.CORSOrigins,
	}, s.logger)

	// Order matters: the request id must exist before Logger reads it, and
	// Recoverer must sit inside Logger so a panic is still logged as a 500.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := auth.RequireAuth(gate)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("/ws", wsHandler)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			if github != nil {
				r.Get("/github/login", authHandler.HandleGitHubLogin)
				r.Get("/github/callback", authHandler.HandleGitHubCallback)
			}
		})

		// Public reads.
		r.Get("/users/profile/{userId}", userHandler.HandleGetProfile)
		r.Get("/questions", questionHandler.HandleList)
		r.Get("/questions/{questionId}", questionHandler.HandleGet)
		r.Get("/questions/{questionId}/answers", questionHandler.HandleListAnswers)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", authHandler.HandleMe)

			r.Put("/users/profile", userHandler.HandleUpdateProfile)
			r.Get("/users/search", userHandler.HandleSearch)

			r.Post("/contacts/add", contactHandler.HandleAdd)
			r.Get("/contacts", contactHandler.HandleList)
			r.Delete("/contacts/remove/{contactId}", contactHandler.HandleRemove)

			r.Get("/global-messages/history", messageHandler.HandleGlobalHistory)
			r.Get("/messages/history/{peerId}", messageHandler.HandlePrivateHistory)

			r.Post("/questions/ask", questionHandler.HandleAsk)
			r.Put("/questions/{questionId}", questionHandler.HandleUpdate)
			r.Delete("/questions/{questionId}", questionHandler.HandleDelete)
			r.Post("/questions/{questionId}/answers", questionHandler.HandlePostAnswer)

			r.Put("/answers/{answerId}", answerHandler.HandleUpdate)
			r.Delete("/answers/{answerId}", answerHandler.HandleDelete)
			r.Post("/answers/{answerId}/vote", answerHandler.HandleVote)
			r.Post("/answers/{answerId}/mark-best", answerHandler.HandleMarkBest)
		})
	})

	return nil
}

// Start serves until SIGINT/SIGTERM or a listener failure, then drains
// in-flight requests and closes the stores.
//
// No WriteTimeout: it would also cut long-lived websocket sessions, which
// enforce their own write deadlines.
func (s *Server) Start(ctx context.Context) error {
	defer s.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting",
			slog.Int("port", s.config.HTTP.Port),
			slog.String("database", s.config.Database.Path),
			slog.Bool("githubLogin", s.config.GitHub.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})
	return g.Wait()
}

func (s *Server) close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("closing cache", slog.String("error", err.Error()))
		}
	}
	if err := s.db.Close(); err != nil {
		s.logger.Warn("closing database", slog.String("error", err.Error()))
	}
}
