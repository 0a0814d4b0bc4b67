package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/balanza/internal/reminder"
)

// SMTPConfig holds relay settings. Port 587 with STARTTLS is the usual
// submission setup; net/smtp upgrades automatically when the server offers it.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Validate checks that the relay can be addressed.
func (c SMTPConfig) Validate() error {
	if c.Host == "" {
		return errors.New("smtp: host is required")
	}
	if c.Port <= 0 {
		return fmt.Errorf("smtp: invalid port %d", c.Port)
	}
	if c.From == "" && c.Username == "" {
		return errors.New("smtp: from or username is required")
	}
	return nil
}

func (c SMTPConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c SMTPConfig) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends notifications as plain-text e-mail.
type SMTP struct {
	cfg      SMTPConfig
	auth     smtp.Auth
	sendMail sendMailFunc
	now      func() time.Time
}

// NewSMTP creates an SMTP notifier.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTP{
		cfg:      cfg,
		auth:     auth,
		sendMail: smtp.SendMail,
		now:      time.Now,
	}, nil
}

// Send delivers n to n.Recipient.
//
// smtp.SendMail takes no context, so cancellation is only honoured before the
// dial.
func (s *SMTP) Send(ctx context.Context, n reminder.Notification) error {
	if n.Recipient == "" {
		return errors.New("smtp: notification has no recipient")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}

	msg := buildMessage(s.cfg.sender(), n, s.now())
	if err := s.sendMail(s.cfg.addr(), s.auth, s.cfg.sender(), []string{n.Recipient}, msg); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", n.Recipient, err)
	}
	return nil
}

// buildMessage renders an RFC 5322 message with CRLF line endings.
func buildMessage(from string, n reminder.Notification, date time.Time) []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(stripCRLF(v))
		b.WriteString("\r\n")
	}

	header("From", from)
	header("To", n.Recipient)
	header("Subject", n.Subject)
	header("Date", date.Format(time.RFC1123Z))
	if n.ID != "" {
		header("Message-ID", "<"+n.ID+"@balanza>")
	}
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="UTF-8"`)
	b.WriteString("\r\n")

	body := strings.ReplaceAll(n.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// stripCRLF prevents header injection from user-supplied titles.
func stripCRLF(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
