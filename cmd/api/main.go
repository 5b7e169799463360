// Package main is the entrypoint for the recordport API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/recordport/recordport/internal/audit"
	"github.com/recordport/recordport/internal/cache"
	"github.com/recordport/recordport/internal/config"
	"github.com/recordport/recordport/internal/handler"
	"github.com/recordport/recordport/internal/metrics"
	"github.com/recordport/recordport/internal/repository"
	"github.com/recordport/recordport/internal/server"
	"github.com/recordport/recordport/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.MigrateOnStart {
		if err := repository.Migrate(cfg.DatabaseURL, logger); err != nil {
			logger.Error("failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.WithPoolSize(cfg.RedisPoolSize))
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(reg)

	var publisher *audit.Publisher
	if cfg.AuditStreamEnabled {
		publisher = audit.NewPublisher(cacheClient.Client(), logger, recorder)
	}
	auditLogger := audit.NewLogger(repo, publisher, logger)

	importService := service.NewImportService(repo, auditLogger, logger, recorder, cfg.ImportConfirmTimeout)
	exportService := service.NewExportService(repo, auditLogger, logger, recorder)

	r := setupRouter(routes{
		base:   handler.New(),
		health: handler.NewHealthHandler(repo, cacheClient),
		importer: handler.NewImportHandler(importService, handler.ImportHandlerConfig{
			MaxMessageBytes: cfg.ImportMaxMessageBytes,
			AllowedOrigins:  cfg.GetCORSAllowedOrigins(),
		}, logger),
		exporter: handler.NewExportHandler(exportService, logger),
		metrics:  handler.NewMetricsHandler(reg),
		limiter:  cacheClient,
	}, reg, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"audit_stream", cfg.AuditStreamEnabled,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.LogLevel),
		AddSource: cfg.IsDevelopment(),
	}

	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "recordport", "version", handler.Version)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

var passwordPattern = regexp.MustCompile(`(?i)password=\S+`)

// redactURL masks the password of a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	return u.Redacted()
}

// sanitizeError renders err with every secret URL replaced by its redacted
// form and key=value passwords masked.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	pairs := make([]string, 0, 2*len(secrets))
	for _, secret := range secrets {
		if secret != "" {
			pairs = append(pairs, secret, redactURL(secret))
		}
	}
	msg := strings.NewReplacer(pairs...).Replace(err.Error())
	return passwordPattern.ReplaceAllString(msg, "password=xxxxx")
}
