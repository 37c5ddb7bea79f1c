// Package main is the entry point for the vidstream user service. It loads
// configuration from the environment (optionally via a .env file), builds
// the server, and runs it until shutdown. All actual logic lives in the
// internal packages.
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kunals/vidstream/internal/auth"
	"github.com/kunals/vidstream/internal/server"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the real environment and the file simply does not exist.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.UploadTmpDir, 0o755); err != nil {
		logger.Error("creating upload temp dir",
			slog.String("dir", cfg.UploadTmpDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := server.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig() (server.Config, error) {
	cfg := server.Config{
		Port:             8080,
		MongoURI:         envOr("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDB:          envOr("MONGODB_DB", "vidstream"),
		CloudinaryFolder: envOr("CLOUDINARY_FOLDER", "vidstream"),
		KafkaBroker:      os.Getenv("KAFKA_BROKER"),
		KafkaTopic:       envOr("KAFKA_TOPIC", "user.registered"),
		UploadTmpDir:     envOr("UPLOAD_TMP_DIR", "data/uploads"),
		Tokens: auth.TokenConfig{
			AccessSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
			RefreshSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    240 * time.Hour, // 10 days
		},
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return cfg, &configError{"PORT", portStr}
		}
		cfg.Port = port
	}

	if ttl := os.Getenv("ACCESS_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return cfg, &configError{"ACCESS_TOKEN_TTL", ttl}
		}
		cfg.Tokens.AccessTTL = d
	}
	if ttl := os.Getenv("REFRESH_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return cfg, &configError{"REFRESH_TOKEN_TTL", ttl}
		}
		cfg.Tokens.RefreshTTL = d
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type configError struct {
	key   string
	value string
}

func (e *configError) Error() string {
	return "invalid value for " + e.key + ": " + strconv.Quote(e.value)
}
