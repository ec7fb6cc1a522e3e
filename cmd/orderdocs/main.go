package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/orderdocs/orderdocs/internal/config"
	"github.com/orderdocs/orderdocs/internal/handlers"
	"github.com/orderdocs/orderdocs/internal/logging"
	"github.com/orderdocs/orderdocs/internal/platform"
	"github.com/orderdocs/orderdocs/internal/ratelimit"
	"github.com/orderdocs/orderdocs/internal/server"
	"github.com/orderdocs/orderdocs/internal/service"
	"github.com/orderdocs/orderdocs/internal/spool"
	"github.com/orderdocs/orderdocs/internal/webhook"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	logger.Info("starting orderdocs service", "port", cfg.Server.Port)
	if *configPath != "" {
		logger.Info("loaded config file", "path", *configPath)
	}

	// Spool directory for in-flight uploads
	store, err := spool.New(cfg.Upload.SpoolDir)
	if err != nil {
		log.Fatalf("Failed to create spool: %v", err)
	}

	// Inbound rate limiter (no-op unless enabled)
	limiter, err := ratelimit.NewRedisRateLimiter(
		cfg.RateLimit.RedisURL,
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
		!cfg.RateLimit.Enabled,
	)
	if err != nil {
		log.Fatalf("Failed to initialize rate limiter: %v", err)
	}
	defer limiter.Close()

	// Remote platform client
	client := platform.NewClient(platform.Options{
		Endpoint:              cfg.Platform.GraphQLEndpoint(),
		AccessToken:           cfg.Platform.AccessToken,
		Timeout:               cfg.Platform.Timeout,
		UploadMode:            cfg.Upload.Mode,
		ResolveMaxAttempts:    cfg.Platform.ResolveMaxAttempts,
		ResolveInitialBackoff: cfg.Platform.ResolveInitialBackoff,
		ResolveMaxBackoff:     cfg.Platform.ResolveMaxBackoff,
		Logger:                logger,
	})

	// Orchestration and HTTP layers
	svc := service.NewDocumentService(client, service.Config{
		Namespace:     cfg.Metafield.Namespace,
		Key:           cfg.Metafield.Key,
		AttributeName: cfg.Metafield.AttributeName,
	}, logger)

	verifier := webhook.NewVerifier(cfg.Webhook.Secret)

	handler := handlers.NewHandler(svc, verifier, store, limiter,
		cfg.Upload.MaxFileSize, cfg.Webhook.MaxBodySize, logger)

	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server stopped")
}
