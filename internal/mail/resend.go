// Package mail delivers transactional email through Resend.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/config"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
)

// Attachment is a file attached to an outgoing email.
type Attachment struct {
	Filename string
	Content  []byte
}

// Email is one outgoing message.
type Email struct {
	To          string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender delivers email. Satisfied by the Resend client and by test fakes.
type Sender interface {
	Send(ctx context.Context, email Email) (id string, err error)
	Configured() bool
}

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client *resend.Client
	sender string
	logger *zap.Logger
}

// NewResendSender creates a Resend-backed sender. An empty API key yields an
// unconfigured sender that refuses to send.
func NewResendSender(cfg config.MailConfig, logger *zap.Logger) *ResendSender {
	var client *resend.Client
	if cfg.APIKey != "" {
		client = resend.NewClient(cfg.APIKey)
	}
	return &ResendSender{client: client, sender: cfg.SenderEmail, logger: logger}
}

// Configured reports whether an API key was provided.
func (s *ResendSender) Configured() bool {
	return s.client != nil
}

// Send delivers the email. Resend sandbox restrictions are translated into
// actionable validation errors.
func (s *ResendSender) Send(ctx context.Context, email Email) (string, error) {
	if s.client == nil {
		return "", errors.Validation("email service not configured; set RESEND_API_KEY")
	}

	params := &resend.SendEmailRequest{
		From:    s.sender,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
	}
	if email.ReplyTo != "" && strings.Contains(email.ReplyTo, "@") {
		params.ReplyTo = email.ReplyTo
	}
	for _, a := range email.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Filename: a.Filename,
			Content:  a.Content,
		})
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "only send testing emails") || strings.Contains(msg, "verify a domain"):
			return "", errors.Validation("email service is in sandbox mode; verify your domain at resend.com/domains to send to clients")
		case strings.Contains(msg, "invalid") && strings.Contains(msg, "email"):
			return "", errors.Validation(fmt.Sprintf("invalid email address: %s", email.To))
		}
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		zap.String("to", email.To),
		zap.String("email_id", sent.Id))
	return sent.Id, nil
}
