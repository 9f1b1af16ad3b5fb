// internal/relay/mailer.go
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer is the outbound mail transport used by the relay.
type Mailer interface {
	// Verify checks the transport is ready to send.
	Verify(ctx context.Context) error
	// Send delivers one message to a single recipient.
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SendgridMailer sends through the SendGrid API.
type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *zap.Logger
	apiKey string
}

// NewSendgridMailer creates a SendGrid-backed mailer.
func NewSendgridMailer(apiKey, fromAddress string, logger *zap.Logger) (*SendgridMailer, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if fromAddress == "" {
		return nil, errors.New("mail from address is required")
	}
	return &SendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("", fromAddress),
		logger: logger.Named("mailer"),
		apiKey: apiKey,
	}, nil
}

// Verify confirms the transport is configured.
func (m *SendgridMailer) Verify(_ context.Context) error {
	if m.client == nil || m.apiKey == "" {
		return errors.New("mail transport not configured")
	}
	return nil
}

// Send delivers one message to the recipient.
func (m *SendgridMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), "", htmlBody)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message: status %d, body %s", response.StatusCode, response.Body)
	}

	m.logger.Info("email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("status", response.StatusCode))
	return nil
}
