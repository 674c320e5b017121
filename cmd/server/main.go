package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/credittrack/credittrack/internal/app"
	"github.com/credittrack/credittrack/internal/app/httpapi"
	"github.com/credittrack/credittrack/internal/app/metrics"
	"github.com/credittrack/credittrack/internal/config"
	"github.com/credittrack/credittrack/internal/httpserver"
	"github.com/credittrack/credittrack/internal/middleware"
	"github.com/credittrack/credittrack/pkg/logger"
)

func main() {
	// Optional; absence of a .env file is the normal case.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(app.Stores{}, log)
	handler := httpapi.NewHandler(application, httpapi.Options{
		AdminToken: cfg.Auth.AdminToken,
		AuditPath:  os.Getenv("AUDIT_LOG_PATH"),
	}, log)

	chain := metrics.InstrumentHandler(handler)
	chain = middleware.NewTracingMiddleware(log).Handler(chain)
	if cfg.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
		rl.StartCleanup(ctx.Done(), 5*time.Minute)
		chain = rl.Handler(chain)
	}
	chain = middleware.NewCORSMiddleware([]string{"*"}).Handler(chain)

	srv := httpserver.New(cfg.Server, log, chain)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
