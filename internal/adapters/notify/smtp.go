package notify

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// SMTPConfig holds the settings for the SMTP notifier.
type SMTPConfig struct {
	Addr     string
	From     string
	To       []string
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPNotifier mails escalation alerts to a fixed recipient list.
type SMTPNotifier struct {
	addr     string
	from     string
	to       []string
	username string
	password string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSMTPNotifier creates a new SMTP notifier.
func NewSMTPNotifier(cfg SMTPConfig, logger *zap.Logger) (*SMTPNotifier, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("smtp notifier requires an address")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("smtp notifier requires at least one recipient")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logger.Info("Using SMTP escalation notifier",
		zap.String("addr", cfg.Addr),
		zap.Int("recipients", len(cfg.To)))

	return &SMTPNotifier{
		addr:     cfg.Addr,
		from:     cfg.From,
		to:       cfg.To,
		username: cfg.Username,
		password: cfg.Password,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// Notify sends the alert for one escalated decision.
func (n *SMTPNotifier) Notify(ctx context.Context, record *core.DecisionRecord, review *core.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := n.buildMessage(record, review)

	conn, err := net.DialTimeout("tcp", n.addr, n.timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(n.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello("toxity-filter"); err != nil {
		return fmt.Errorf("failed to send HELO: %w", err)
	}

	if n.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.username, n.password)); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, rcpt := range n.to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}

	if _, err := w.Write([]byte(msg)); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		return fmt.Errorf("failed to quit SMTP session: %w", err)
	}

	n.logger.Debug("Escalation alert mailed",
		zap.String("decision_id", record.ID),
		zap.Int("recipients", len(n.to)))

	return nil
}

func (n *SMTPNotifier) buildMessage(record *core.DecisionRecord, review *core.Review) string {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.to, ", "))
	fmt.Fprintf(&b, "Subject: Moderation alert: %s decision %s\r\n", record.Level, record.ID)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(formatAlert(record, review), "\n", "\r\n"))

	return b.String()
}
