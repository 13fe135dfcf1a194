package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/config"
	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/ingest"
	"github.com/dukerupert/larder/internal/ingest/anthropic"
	"github.com/dukerupert/larder/internal/ingest/gemini"
	"github.com/dukerupert/larder/internal/logging"
	"github.com/dukerupert/larder/internal/objectstore"
	"github.com/dukerupert/larder/internal/push"
	"github.com/dukerupert/larder/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	verifier, err := newVerifier(cfg)
	if err != nil {
		logger.Error("failed to configure token verification", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model := newModel(ctx, cfg, logger)
	parser := ingest.NewParser(model, logger.With("component", "ingest"))

	deps := server.Deps{
		DB:             db,
		Verifier:       verifier,
		Ingester:       parser,
		Images:         objectstore.New(cfg.S3),
		OriginPatterns: cfg.AllowedOrigins,
		Logger:         logger,
	}
	if deps.Images == nil {
		logger.Info("recipe image storage disabled")
	}
	if cfg.PushEnabled() {
		deps.Push = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
	} else {
		logger.Info("web push disabled")
	}

	srv := server.New(deps)

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("larder listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// newVerifier prefers the RSA public key when both are configured.
func newVerifier(cfg *config.Config) (*auth.Verifier, error) {
	if cfg.AuthPublicKeyFile != "" {
		pem, err := os.ReadFile(cfg.AuthPublicKeyFile)
		if err != nil {
			return nil, err
		}
		return auth.NewRSAVerifier(pem, cfg.AuthIssuer)
	}
	return auth.NewHMACVerifier(cfg.AuthSecret, cfg.AuthIssuer)
}

// newModel returns nil when the selected provider has no key, so ingestion
// calls report that the service is not configured.
func newModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) ingest.Model {
	switch cfg.IngestProvider {
	case "gemini":
		c, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini ingestion disabled", "error", err)
			return nil
		}
		return c
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			logger.Warn("anthropic ingestion disabled", "error", ingest.ErrNotConfigured)
			return nil
		}
		return anthropic.New(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	default:
		logger.Warn("unknown ingestion provider", "provider", cfg.IngestProvider)
		return nil
	}
}
