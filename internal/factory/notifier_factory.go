package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/VasilyPolyuhovich/ToxityFilter/internal/adapters/notify"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/config"
	"github.com/VasilyPolyuhovich/ToxityFilter/internal/core"
)

// NotifierFactory creates escalation alert notifiers
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier creates a notifier based on the configuration. The
// "disabled" type means escalations are only recorded, never alerted.
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	notifyCfg := f.cfg.GetNotify()

	switch notifyCfg.Type {
	case "smtp":
		timeout, err := f.cfg.GetDuration("notify.smtp_timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP timeout: %w", err)
		}
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Addr:     notifyCfg.SMTPAddr,
			From:     notifyCfg.SMTPFrom,
			To:       notifyCfg.SMTPTo,
			Username: notifyCfg.SMTPUsername,
			Password: notifyCfg.SMTPPassword,
			Timeout:  timeout,
		}, f.logger)
	case "webhook":
		timeout, err := f.cfg.GetDuration("notify.webhook_timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid webhook timeout: %w", err)
		}
		return notify.NewWebhookNotifier(notifyCfg.WebhookURL, timeout, f.logger)
	case "disabled":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported notifier type: %s", notifyCfg.Type)
	}
}
