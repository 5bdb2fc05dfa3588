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

	"assetflow/admin"
	"assetflow/asset"
	"assetflow/category"
	"assetflow/config"
	"assetflow/db"
	"assetflow/httpapi"
	"assetflow/identity"
	"assetflow/lifecycle"
	"assetflow/metrics"
	"assetflow/notify"
	"assetflow/overdue"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	metrics.Init()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	assets := asset.NewRepository(pool)
	engine := lifecycle.NewEngine(pool, lifecycle.NewRepository(), lifecycle.FixedHorizon{Days: cfg.ReturnHorizonDays})
	ledger := lifecycle.NewLedger(pool)
	accounts := identity.NewService(identity.NewRepository(pool), cfg.JWTSecret)
	categories := category.NewService(category.NewRepository(pool))
	adminSvc := admin.NewService(admin.NewRepository(pool))

	var dispatcher notify.Dispatcher
	if cfg.WebhookURL != "" {
		dispatcher = notify.NewWebhookDispatcher(cfg.WebhookURL, nil, logger)
	} else {
		logger.Warn("NOTIFY_WEBHOOK_URL not set, overdue notices go to the log only")
		dispatcher = notify.NewLogDispatcher(logger)
	}

	scanner := overdue.NewScanner(assets, overdue.NewLog(pool), dispatcher, cfg.DedupWindow, logger).
		WithWorkers(cfg.ScanWorkers)

	scheduler, err := overdue.NewScheduler(scanner, logger)
	if err != nil {
		return err
	}
	if _, err := scheduler.ScheduleScan(cfg.ScanInterval); err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("scheduler shutdown", slog.Any("error", err))
		}
	}()

	handlers := httpapi.NewHandlers(engine, scanner, assets, ledger, adminSvc, categories, accounts, logger)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(handlers, accounts),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
