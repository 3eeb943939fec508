// Package email delivers HTML email through SMTP or the Brevo
// transactional API. Every sender reports success or failure; callers
// never see a partially delivered message.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskflow/internal/config"
)

// Provider names accepted in configuration.
const (
	ProviderNone  = "none"
	ProviderSMTP  = "smtp"
	ProviderBrevo = "brevo"
)

var (
	// ErrNotConfigured is returned by the disabled sender.
	ErrNotConfigured = errors.New("email delivery is not configured")

	// ErrInvalidRecipient is returned when the recipient address is empty.
	ErrInvalidRecipient = errors.New("email recipient is required")
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Disabled is a Sender that always fails with ErrNotConfigured.
type Disabled struct{}

// Send implements Sender.
func (Disabled) Send(context.Context, string, string, string) error {
	return ErrNotConfigured
}

// New builds the sender selected by cfg.Provider, wrapped in a rate
// limiter when cfg.RatePerSecond is positive.
func New(cfg config.EmailConfig, logger *slog.Logger) (Sender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "email"), slog.String("provider", cfg.Provider))

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var sender Sender
	switch cfg.Provider {
	case ProviderNone, "":
		log.Warn("email delivery disabled; notifications will be recorded as failed")
		return Disabled{}, nil
	case ProviderSMTP:
		if cfg.SMTP.Host == "" || cfg.FromAddress == "" {
			return nil, fmt.Errorf("smtp provider requires email.smtp.host and email.from_address")
		}
		sender = NewSMTPSender(cfg.SMTP, cfg.FromAddress, cfg.FromName, timeout)
	case ProviderBrevo:
		if cfg.Brevo.APIKey == "" || cfg.FromAddress == "" {
			return nil, fmt.Errorf("brevo provider requires email.brevo.api_key and email.from_address")
		}
		sender = NewBrevoSender(cfg.Brevo, cfg.FromAddress, cfg.FromName, timeout)
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}

	if cfg.RatePerSecond > 0 {
		sender = NewThrottled(sender, cfg.RatePerSecond, cfg.Burst)
	}

	log.Info("email delivery configured", slog.Float64("rate_per_second", cfg.RatePerSecond))
	return sender, nil
}
