// analyze runs one analysis pass for a single family and exits. Useful for
// cron-driven setups and for replaying a family after a failed run.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/famcart/receipt-analyzer/internal/analysis"
	"github.com/famcart/receipt-analyzer/internal/common"
	"github.com/famcart/receipt-analyzer/internal/entity"
	"github.com/famcart/receipt-analyzer/internal/llm/openai"
	"github.com/famcart/receipt-analyzer/internal/notify"
	"github.com/famcart/receipt-analyzer/internal/repository"
)

func main() {
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("analyze")
	var (
		familyID  = fs.StringLong("family", "", "family id to analyze (required)")
		userEmail = fs.StringLong("email", "", "notification recipient")
		dbURL     = fs.StringLong("db-url", cfg.Database.DSN, "Postgres connection string")
		timeout   = fs.DurationLong("timeout", cfg.Analysis.RunTimeout, "run timeout")
	)
	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("ANALYZER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *familyID == "" {
		fmt.Fprintln(os.Stderr, "error: --family is required")
		os.Exit(1)
	}
	cfg.Database.DSN = *dbURL

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

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

	if err := repository.Migrate(ctx, pool, logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

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

	svc := analysis.NewService(
		repository.NewReceiptRepository(pool, logger),
		repository.NewListRepository(pool, logger),
		extractor,
		notifier,
		logger,
	)

	start := time.Now()
	if err := svc.Run(ctx, entity.AnalysisRequest{FamilyID: *familyID, UserEmail: *userEmail}); err != nil {
		logger.Error("analysis failed", "family_id", *familyID, "error", err)
		os.Exit(1)
	}
	logger.Info("analysis complete", "family_id", *familyID, "elapsed_ms", time.Since(start).Milliseconds())
}
