package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopie/internal/config"
	"shopie/internal/database"
	"shopie/internal/logger"
	"shopie/internal/mail"
	"shopie/internal/server"
	"shopie/migrations"

	"go.uber.org/zap"
)

// gracefulShutdown waits for SIGINT/SIGTERM, drains the HTTP server within
// timeout and releases the database, Redis and limiter resources.
func gracefulShutdown(apiServer *server.Server, log *zap.Logger, timeout time.Duration, done chan<- struct{}) {
	defer close(done)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	<-ctx.Done()
	// A second signal kills the process
	stop()

	log.Info("Shutdown signal received, draining requests", zap.Duration("timeout", timeout))

	drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := apiServer.Shutdown(drainCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := apiServer.Close(); err != nil {
		log.Error("Error closing server resources", zap.Error(err))
	}
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	log.Info("Starting Shopie API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database health check", zap.Any("health", dbService.Health()))

	// "migrate-status" prints the migration table and exits
	if len(os.Args) > 1 && os.Args[1] == "migrate-status" {
		if err := database.GetMigrationStatus(dbService.DB(), migrations.FS); err != nil {
			log.Fatal("Failed to read migration status", zap.Error(err))
		}
		dbService.Close()
		return
	}

	if err := database.RunMigrations(dbService.DB(), migrations.FS, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully")

	mailer, err := mail.New(cfg.Mail, cfg.Server.FrontendURL, log)
	if err != nil {
		log.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	srv := server.NewServer(cfg, log, dbService, mailer)

	bootstrapCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	srv.EnsureAdmin(bootstrapCtx)
	cancel()

	done := make(chan struct{})
	go gracefulShutdown(srv, log, cfg.Server.ShutdownTimeout, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
