package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	appnotification "github.com/assetflow/backend/internal/application/notification"
	"github.com/assetflow/backend/internal/infrastructure/config"
	"github.com/wneessen/go-mail"
)

// SMTPNotifier delivers messages through an SMTP relay. Each Send dials a
// fresh connection; reminder digests and workflow mails are too sparse to
// justify pooling.
type SMTPNotifier struct {
	from   string
	client *mail.Client
}

// NewSMTPNotifier builds the relay client from the notification settings
func NewSMTPNotifier(cfg config.NotificationConfig) (*SMTPNotifier, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("smtp transport requires a host")
	}
	policy, err := tlsPolicy(cfg.SMTPTLS)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(timeout),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthType(strings.ToUpper(cfg.SMTPAuth))),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPNotifier{from: cfg.FromAddress, client: client}, nil
}

func tlsPolicy(name string) (mail.TLSPolicy, error) {
	switch strings.ToLower(name) {
	case "", "mandatory":
		return mail.TLSMandatory, nil
	case "opportunistic":
		return mail.TLSOpportunistic, nil
	case "none":
		return mail.NoTLS, nil
	}
	return mail.NoTLS, fmt.Errorf("unknown smtp tls policy %q", name)
}

// Send composes a plain-text mail and hands it to the relay
func (n *SMTPNotifier) Send(ctx context.Context, msg appnotification.Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return fmt.Errorf("sender %q: %w", n.from, err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
