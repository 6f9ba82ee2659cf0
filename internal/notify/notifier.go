// Package notify delivers shopping-list update notifications. Delivery
// transport is external; this package only speaks to it.
package notify

import (
	"context"
	"log/slog"

	"github.com/famcart/receipt-analyzer/internal/entity"
)

// Notifier is the collaborator the orchestrator depends on.
type Notifier interface {
	Send(ctx context.Context, event entity.NotificationEvent) error
}

// Nop drops events. Used when no webhook is configured.
type Nop struct {
	Logger *slog.Logger
}

func (n Nop) Send(_ context.Context, event entity.NotificationEvent) error {
	if n.Logger != nil {
		n.Logger.Warn("notify.nop.dropped", "user_email", event.UserEmail, "title", event.Title)
	}
	return nil
}
