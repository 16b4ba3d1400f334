package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lborres/walletbind"
	fiberadapter "github.com/lborres/walletbind/adapters/fiber"
	pgxadapter "github.com/lborres/walletbind/adapters/pgx"
	redisadapter "github.com/lborres/walletbind/adapters/redis"
	"github.com/lborres/walletbind/core"
	"github.com/lborres/walletbind/internal/config"
	"github.com/lborres/walletbind/pkg/cache"
	"github.com/lborres/walletbind/pkg/metrics"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

// accessLogFormat leaves out headers and bodies; both carry credentials.
func accessLogFormat() string {
	format := []string{
		"${time}",
		"${status}|${latency}",
		"${ip}",
		"${bytesReceived}|${bytesSent}",
		"${method}|${path}",
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxadapter.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if migrateOnStart {
		if err := pgxadapter.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("schema applied")
	}

	sessionCache, closeCache, err := buildCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCache(); err != nil {
			logger.Warn("closing session cache failed", "error", err)
		}
	}()

	app := fiber.New(fiber.Config{AppName: "walletbindd"})
	app.Use(recoverer.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     accessLogFormat(),
		TimeFormat: "2006/01/02 15:04:05",
		TimeZone:   "Local",
	}))

	httpAdapter := fiberadapter.New(app).WithLogger(logger)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m, err = metrics.New(reg)
		if err != nil {
			return err
		}
		httpAdapter.RegisterMetrics(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	store := pgxadapter.New(pool).WithTransferTokenTTL(cfg.Session.TransferTokenTTL)
	service, err := walletbind.New(walletbind.Config{
		IdentityStore:  store,
		SessionStorage: store,
		HTTP:           httpAdapter,
		Cache:          sessionCache,
		DisableCache:   cfg.Cache.Disabled,
		SessionConfig:  &walletbind.SessionConfig{MaxAge: cfg.Session.MaxAge},
		MessagePrefix:  cfg.MessagePrefix,
		BasePath:       cfg.BasePath,
		Logger:         logger,
		Metrics:        m,
	})
	if err != nil {
		return err
	}

	go sweepSessions(ctx, service, cfg.Session.SweepInterval, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Listen, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	logger.Info("walletbindd started", "listen", cfg.Listen, "basePath", cfg.BasePath)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	logger.Info("walletbindd stopped cleanly")
	return nil
}

func noopClose() error { return nil }

// buildCache returns the Redis cache when an address is configured and the
// in-process cache otherwise, with a func releasing whatever it opened.
func buildCache(ctx context.Context, cfg config.File, logger *slog.Logger) (core.Cache, func() error, error) {
	if cfg.Cache.Disabled {
		return nil, noopClose, nil
	}
	cacheConfig := core.CacheConfig{TTL: cfg.Cache.TTL, MaxSize: cfg.Cache.MaxSize}
	if cfg.Redis.Addr == "" {
		return cache.NewInMemoryCache(cacheConfig), noopClose, nil
	}

	client, err := redisadapter.Connect(ctx, redisadapter.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, noopClose, err
	}
	logger.Info("using redis session cache", "addr", cfg.Redis.Addr)
	return redisadapter.NewCache(client, cacheConfig), client.Close, nil
}

type sessionSweeper interface {
	SweepExpiredSessions(ctx context.Context) (int, error)
}

func sweepSessions(ctx context.Context, sweeper sessionSweeper, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := sweeper.SweepExpiredSessions(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Warn("session sweep failed", "error", err)
				}
				continue
			}
			if count > 0 {
				logger.Info("expired sessions removed", "count", count)
			}
		}
	}
}
