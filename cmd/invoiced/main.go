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

	"github.com/joseph-ayodele/invoice-auditor/internal/common"
	"github.com/joseph-ayodele/invoice-auditor/internal/export"
	"github.com/joseph-ayodele/invoice-auditor/internal/extract"
	"github.com/joseph-ayodele/invoice-auditor/internal/extract/gemini"
	"github.com/joseph-ayodele/invoice-auditor/internal/ingest"
	"github.com/joseph-ayodele/invoice-auditor/internal/mail"
	"github.com/joseph-ayodele/invoice-auditor/internal/storage"

	repo "github.com/joseph-ayodele/invoice-auditor/internal/repository"
	svc "github.com/joseph-ayodele/invoice-auditor/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConfig := repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}
	pool, err := repo.Open(ctx, dbConfig, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(pool, logger)

	if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	objects, err := storage.NewMinioStore(ctx, storage.Config{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	}, logger)
	if err != nil {
		logger.Error("failed to connect object storage", "error", err)
		os.Exit(1)
	}

	generator := gemini.NewClient(gemini.Config{
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout,
	}, logger)
	keys := extract.NewKeyPool(cfg.Gemini.APIKeys)
	gateway := extract.NewGateway(generator, keys, extract.GatewayConfig{
		RetryDelay: cfg.Gemini.RetryDelay,
		CacheSize:  cfg.Gemini.CacheSize,
	}, logger)

	invoices := repo.NewInvoiceRepository(pool, logger)
	ingestSvc := ingest.NewService(invoices, objects, gateway,
		ingest.NewHealth(), mail.Dial, cfg, logger)
	exports := export.NewService(invoices, logger)

	server := svc.NewServer(ingestSvc, invoices, exports, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Handler(),
	}

	logger.Info("invoice-auditor listening", "addr", cfg.Server.Addr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
