package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/creditledger"
	"github.com/ledgerline/ledgerline/internal/invoiceledger"
	"github.com/ledgerline/ledgerline/internal/mailer"
	"github.com/ledgerline/ledgerline/internal/objstore"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/onboard"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/reconcile"
	"github.com/ledgerline/ledgerline/internal/whitelist"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Membership checks degrade to the database without Redis.
		logger.Warn("redis unavailable, whitelist cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	store, err := objstore.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3BaseURL)
	if err != nil {
		logger.Error("object storage", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	creditRepo := creditledger.NewRepository(pool)
	creditService := creditledger.NewService(creditRepo)
	creditHandler := creditledger.NewHandler(logger, creditService)

	invoiceRepo := invoiceledger.NewRepository(pool)
	invoiceService := invoiceledger.NewService(invoiceRepo)
	invoiceHandler := invoiceledger.NewHandler(logger, invoiceService, store)

	whitelistRepo := whitelist.NewRepository(pool)
	directory := whitelist.NewDirectory(whitelistRepo, redisClient, cfg.WhitelistCacheTTL, logger)
	whitelistService := whitelist.NewService(whitelistRepo, invoiceRepo, directory, logger)
	whitelistHandler := whitelist.NewHandler(logger, whitelistService)

	onboardRepo := onboard.NewRepository(pool)
	onboardService := onboard.NewService(onboardRepo)
	onboardHandler := onboard.NewHandler(logger, onboardService)

	ingestService := reconcile.NewService(
		onboardRepo, creditRepo, invoiceRepo, directory, logger, metrics, cfg.MaxParallelRows)
	ingestHandler := reconcile.NewHandler(logger, ingestService)

	templateRepo := mailer.NewRepository(pool)
	sender := mailer.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	mailerService := mailer.NewService(invoiceRepo, creditRepo, whitelistRepo, templateRepo, sender, logger)
	mailerHandler := mailer.NewHandler(logger, mailerService, templateRepo)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		IngestHandler:    ingestHandler,
		CreditHandler:    creditHandler,
		InvoiceHandler:   invoiceHandler,
		WhitelistHandler: whitelistHandler,
		OnboardHandler:   onboardHandler,
		MailerHandler:    mailerHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
