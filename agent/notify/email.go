package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
)

// EmailConfig represents the SMTP configuration for email delivery.
// These settings are provided by the instance administrator.
type EmailConfig struct {
	SMTPHost     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	To           []string
	SMTPPort     int
}

// Validate checks if the configuration is valid.
func (c *EmailConfig) Validate() error {
	if c.SMTPHost == "" {
		return errors.New("SMTP host is required")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return errors.New("SMTP port must be between 1 and 65535")
	}
	if c.FromEmail == "" {
		return errors.New("from email is required")
	}
	if len(c.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	return nil
}

// GetServerAddress returns the SMTP server address in the format "host:port".
func (c *EmailConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.SMTPHost, c.SMTPPort)
}

// EmailSink delivers messages over SMTP as HTML mail.
type EmailSink struct {
	config EmailConfig
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSink creates an email sink. The config must have been validated.
func NewEmailSink(config EmailConfig) *EmailSink {
	return &EmailSink{config: config, send: smtp.SendMail}
}

// Name implements Sink.
func (s *EmailSink) Name() string { return "email" }

// Deliver sends the message to the configured recipients.
func (s *EmailSink) Deliver(_ context.Context, payload *WebhookPayload) error {
	msg := s.format(payload.Message)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.send(s.config.GetServerAddress(), auth, s.config.FromEmail, s.config.To, msg); err != nil {
		return errors.Wrapf(err, "failed to send mail via %s", s.config.GetServerAddress())
	}
	return nil
}

func (s *EmailSink) format(msg Message) []byte {
	from := s.config.FromEmail
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}

	body := msg.HTML
	contentType := "text/html; charset=UTF-8"
	if body == "" {
		body = msg.Body
		contentType = "text/plain; charset=UTF-8"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.config.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	fmt.Fprintf(&b, "\r\n%s\r\n", body)
	return []byte(b.String())
}
