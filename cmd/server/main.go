// Command pharmakrypt-server starts the supply-chain integrity engine.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/aryankumarrai/pharmakrypt/internal/config"
	"github.com/aryankumarrai/pharmakrypt/internal/limiter"
	"github.com/aryankumarrai/pharmakrypt/internal/metrics"
	"github.com/aryankumarrai/pharmakrypt/internal/migrate"
	"github.com/aryankumarrai/pharmakrypt/internal/notify"
	"github.com/aryankumarrai/pharmakrypt/internal/repository/postgres"
	"github.com/aryankumarrai/pharmakrypt/internal/server"
	"github.com/aryankumarrai/pharmakrypt/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the HTTP server.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("validate config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DB.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	db := &postgres.DB{Pool: pool}
	unitRepo := postgres.NewUnitRepo(db)
	credRepo := postgres.NewCredentialRepo(db)
	alertRepo := postgres.NewAlertRepo(db)

	lim := limiter.NewPG(pool, 15*time.Minute, 5, 15*time.Minute)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Redis.Addr != "" {
		redisNotifier, err := notify.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		if err != nil {
			logger.Fatal("redis notifier", zap.Error(err))
		}
		defer func() { _ = redisNotifier.Close() }()
		notifier = redisNotifier
	}

	m := metrics.New()

	scanSvc := service.NewScanService(unitRepo, alertRepo, notifier, m, logger, cfg.Scan.RepeatWindow)
	registrySvc := service.NewRegistryService(credRepo, alertRepo, notifier, lim, logger, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	alertSvc := service.NewAlertService(alertRepo)
	batchSvc := service.NewBatchService(unitRepo, logger)

	srv := server.New(scanSvc, registrySvc, alertSvc, batchSvc, logger, cfg.Auth.AdminKey)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
