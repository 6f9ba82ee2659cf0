// analyzerd is the long-running analysis daemon: HTTP intake in front of a
// worker pool that runs the receipt pipeline against Postgres.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/famcart/receipt-analyzer/internal/analysis"
	"github.com/famcart/receipt-analyzer/internal/async"
	"github.com/famcart/receipt-analyzer/internal/common"
	"github.com/famcart/receipt-analyzer/internal/export"
	"github.com/famcart/receipt-analyzer/internal/llm/openai"
	"github.com/famcart/receipt-analyzer/internal/notify"
	"github.com/famcart/receipt-analyzer/internal/repository"
	"github.com/famcart/receipt-analyzer/internal/server"
)

func main() {
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("analyzerd")
	var (
		addr      = fs.StringLong("addr", cfg.Server.Addr, "HTTP listen address")
		dbURL     = fs.StringLong("db-url", cfg.Database.DSN, "Postgres connection string")
		workers   = fs.IntLong("workers", cfg.Analysis.Workers, "analysis worker count")
		noMigrate = fs.BoolLong("no-migrate", "skip applying schema on startup")
	)
	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("ANALYZER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg.Server.Addr = *addr
	cfg.Database.DSN = *dbURL
	cfg.Analysis.Workers = *workers

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 3*time.Second, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	if !*noMigrate {
		if err := repository.Migrate(ctx, pool, logger); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}

	receipts := repository.NewReceiptRepository(pool, logger)
	lists := repository.NewListRepository(pool, logger)

	extractor := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	var notifier notify.Notifier = notify.Nop{Logger: logger}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhook(notify.Config{
			URL:       cfg.Notify.WebhookURL,
			AuthToken: cfg.Notify.AuthToken,
			Timeout:   cfg.Notify.Timeout,
		}, logger)
	}

	svc := analysis.NewService(receipts, lists, extractor, notifier, logger)
	queue := async.NewAnalysisQueue(svc, logger,
		async.WithWorkers(cfg.Analysis.Workers),
		async.WithQueueSize(cfg.Analysis.QueueSize),
		async.WithRunTimeout(cfg.Analysis.RunTimeout),
	)

	exporter := export.NewService(lists, receipts, logger)
	health := func(ctx context.Context) error {
		return repository.HealthCheck(ctx, pool, 2*time.Second, logger)
	}
	handler := server.NewServer(queue, receipts, lists, exporter, health, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
