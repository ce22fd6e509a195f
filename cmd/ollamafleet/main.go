// ollamafleet-router forwards inference requests across a fleet of Ollama
// backends, tracking health and per-plan rate limits.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ollamafleet/router/pkg/api"
	"github.com/ollamafleet/router/pkg/auth"
	"github.com/ollamafleet/router/pkg/config"
	"github.com/ollamafleet/router/pkg/database"
	"github.com/ollamafleet/router/pkg/forwarder"
	"github.com/ollamafleet/router/pkg/ratelimit"
	"github.com/ollamafleet/router/pkg/router"
	"github.com/ollamafleet/router/pkg/scheduler"
	"github.com/ollamafleet/router/pkg/services"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpAddr := getEnv("HTTP_ADDR", ":8080")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	slog.SetLogLoggerLevel(logLevel(cfg.App.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := database.NewClient(ctx, database.FromAppConfig(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	slog.Info("connected to database")

	hasher := auth.NewBcryptHasher()
	issuer := auth.NewTokenIssuer(cfg.App.SecretKey, cfg.App.Algorithm)

	plans := services.NewPlanService(dbClient.Client)
	settings := services.NewSettingService(dbClient.Client)
	users := services.NewUserService(dbClient.Client, hasher, plans)
	models := services.NewModelService(dbClient.Client)
	apikeys := services.NewApiKeyService(dbClient.Client)

	schedCfg := config.DefaultSchedulerConfig()
	probeRunner := scheduler.NewOllamaProbeRunner(schedCfg)
	sched := scheduler.New(dbClient.Client, schedCfg, models, settings, probeRunner)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	endpoints := services.NewEndpointService(dbClient.Client, sched)

	backendRouter := router.New(dbClient.Client)
	limiter := ratelimit.New(apikeys)
	fwd := forwarder.New(dbClient.Client, apikeys, limiter, backendRouter, apikeys, forwarder.DefaultConfig())

	server := api.NewServer(cfg, dbClient, issuer, users, endpoints, models, apikeys, plans, settings, fwd)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", httpAddr)
		if err := server.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
