// Package server wires the application together: MongoDB, the media store,
// the event producer, services, handlers, and the chi route tree. It is the
// composition root; main.go only loads config and calls Start.
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

	"github.com/kunals/vidstream/internal/auth"
	"github.com/kunals/vidstream/internal/events"
	"github.com/kunals/vidstream/internal/handler"
	"github.com/kunals/vidstream/internal/media"
	"github.com/kunals/vidstream/internal/middleware"
	"github.com/kunals/vidstream/internal/repository/mongodb"
	"github.com/kunals/vidstream/internal/service"
)

// Config holds everything the server needs to start. main.go fills it from
// the environment.
type Config struct {
	Port     int
	MongoURI string
	MongoDB  string

	Tokens auth.TokenConfig

	// CloudinaryFolder is the remote folder uploads land in. The Cloudinary
	// credentials themselves come from the CLOUDINARY_URL env var, read by
	// the SDK.
	CloudinaryFolder string

	// KafkaBroker may be empty; registration events are skipped then.
	KafkaBroker string
	KafkaTopic  string

	// UploadTmpDir is where multipart uploads are spooled before they go to
	// the media store.
	UploadTmpDir string
}

// Server owns the router and the long-lived resources that must be released
// on shutdown: the MongoDB client and the Kafka producer.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	db       *mongodb.DB
	producer *events.Producer
}

// New connects to MongoDB, builds the full dependency chain, and mounts the
// routes. The context bounds the initial connect and index build.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	uploader, err := media.NewCloudinaryUploader(cfg.CloudinaryFolder)
	if err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(closeCtx)
		return nil, fmt.Errorf("creating media uploader: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.Tokens)
	if err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(closeCtx)
		return nil, fmt.Errorf("configuring token service: %w", err)
	}

	var producer *events.Producer
	if cfg.KafkaBroker != "" {
		producer = events.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		producer: producer,
	}
	s.setupRoutes(tokens, uploader)

	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService, uploader media.Uploader) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// events.Publisher is an interface; hand the service a literal nil when
	// no broker is configured so its nil check works.
	var publisher events.Publisher
	if s.producer != nil {
		publisher = s.producer
	}

	userService := service.NewUserService(
		s.db,
		auth.NewPasswordService(),
		tokens,
		uploader,
		publisher,
		s.logger,
	)
	profileService := service.NewProfileService(s.db, s.db, s.db, s.logger)

	userHandler := handler.NewUserHandler(
		userService,
		s.config.UploadTmpDir,
		s.config.Tokens.AccessTTL,
		s.config.Tokens.RefreshTTL,
		s.logger,
	)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleLogin)
		r.Post("/refresh-token", userHandler.HandleRefresh)

		// Channel profiles are public; a valid token only adds the
		// isSubscribed flag.
		r.With(auth.OptionalAuth(tokens)).Get("/c/{username}", profileHandler.HandleChannelProfile)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Post("/logout", userHandler.HandleLogout)
			r.Post("/change-password", userHandler.HandleChangePassword)
			r.Get("/me", userHandler.HandleMe)
			r.Patch("/update-account", userHandler.HandleUpdateAccount)
			r.Patch("/avatar", userHandler.HandleUpdateAvatar)
			r.Patch("/cover-image", userHandler.HandleUpdateCoverImage)
			r.Get("/history", profileHandler.HandleWatchHistory)
		})
	})
}

// handleHealth reports liveness plus a MongoDB ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"status":"degraded","mongodb":"unreachable"}`)
		return
	}
	fmt.Fprint(w, `{"status":"ok"}`)
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: in-flight requests get 30 seconds, then the Kafka producer
// and the MongoDB client are closed.
func (s *Server) Start() error {
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
			slog.String("database", s.config.MongoDB),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			s.closeResources()
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			s.closeResources()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	s.closeResources()
	s.logger.Info("server stopped gracefully")
	return nil
}

func (s *Server) closeResources() {
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			s.logger.Error("closing kafka producer", slog.String("error", err.Error()))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.db.Close(ctx); err != nil {
		s.logger.Error("closing mongodb client", slog.String("error", err.Error()))
	}
}
