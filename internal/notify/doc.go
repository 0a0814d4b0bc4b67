// Package notify delivers reminder notifications.
//
// Every adapter satisfies engine.Notifier:
//
//	Send(ctx context.Context, n reminder.Notification) error
//
// Adapters:
//   - Log: writes the notification to a slog.Logger
//   - SMTP: sends an e-mail through an SMTP relay (STARTTLS when offered)
//   - NATS: publishes the notification as JSON on a per-owner subject
//   - Fanout: sends through several notifiers, joining their errors
package notify
