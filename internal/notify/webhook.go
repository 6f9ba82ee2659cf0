package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/famcart/receipt-analyzer/internal/common"
	"github.com/famcart/receipt-analyzer/internal/entity"
)

// Config for the webhook push sender.
type Config struct {
	URL       string
	AuthToken string        // optional bearer token
	Timeout   time.Duration // http client timeout
}

// Webhook posts NotificationEvents as JSON to a configured push endpoint.
type Webhook struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewWebhook(cfg Config, logger *slog.Logger) *Webhook {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (w *Webhook) Send(ctx context.Context, event entity.NotificationEvent) error {
	headers := map[string]string{}
	if w.cfg.AuthToken != "" {
		headers["Authorization"] = "Bearer " + w.cfg.AuthToken
	}

	w.logger.Info("notify.push.send", "user_email", event.UserEmail, "title", event.Title)
	if _, _, err := common.PostJSON(ctx, w.http, w.cfg.URL, event, headers, "notify.push", w.logger); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}
