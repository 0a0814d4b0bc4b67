package notify

import (
	"context"
	"log/slog"

	"github.com/roach88/balanza/internal/reminder"
)

// Log writes notifications to a logger. Used when no transport is configured.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log notifier. A nil logger means slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Send logs n at info level. It never fails.
func (l *Log) Send(ctx context.Context, n reminder.Notification) error {
	l.logger.InfoContext(ctx, n.Body,
		"notification_id", n.ID,
		"reminder_id", n.ReminderID,
		"recipient", n.Recipient,
		"subject", n.Subject,
	)
	return nil
}
