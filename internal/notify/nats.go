package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/roach88/balanza/internal/reminder"
)

// DefaultSubjectPrefix is the subject root for published notifications.
//
//	balanza.reminders.{owner_id}
const DefaultSubjectPrefix = "balanza.reminders"

// Publisher is the subset of *nats.Conn used by the NATS notifier.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes notifications as JSON on a per-owner subject.
type NATS struct {
	pub    Publisher
	prefix string
}

// NewNATS creates a NATS notifier over an existing connection.
// An empty prefix means DefaultSubjectPrefix.
func NewNATS(pub Publisher, prefix string) *NATS {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATS{pub: pub, prefix: prefix}
}

// DialNATS connects to a NATS server with unlimited reconnects.
func DialNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("balanza"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return nc, nil
}

// Subject returns the subject notifications for ownerID are published on.
func (p *NATS) Subject(ownerID int64) string {
	return p.prefix + "." + strconv.FormatInt(ownerID, 10)
}

// Send publishes n. Core NATS publish is fire-and-forget; an error means the
// message never left the client.
func (p *NATS) Send(ctx context.Context, n reminder.Notification) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("nats: %w", err)
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := p.pub.Publish(p.Subject(n.OwnerID), data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
