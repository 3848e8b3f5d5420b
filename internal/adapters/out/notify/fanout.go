package notify

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/ports"
)

// Fanout delivers to every notifier and joins their errors.
type Fanout []ports.Notifier

func (f Fanout) Notify(ctx context.Context, n ports.Notification) error {
	var errList []error
	for _, next := range f {
		if err := next.Notify(ctx, n); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// LogNotifier writes notifications to the log. It stands in when no broker
// is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) LogNotifier {
	return LogNotifier{logger: logger.With("component", "notify_log")}
}

func (l LogNotifier) Notify(ctx context.Context, n ports.Notification) error {
	l.logger.InfoContext(ctx, "notification",
		"kind", string(n.Kind),
		"user_id", n.RecipientUserID.String(),
		"order_id", n.OrderID.String(),
		"title", n.Title)
	return nil
}
