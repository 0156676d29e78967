// Package mail renders and delivers the transactional emails sent by the
// auth and account flows.
package mail

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"shopie/internal/config"

	"go.uber.org/zap"
)

// Mailer sends the account lifecycle emails
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, to, name string) error
	SendPasswordResetEmail(ctx context.Context, to, resetToken string, expiresIn time.Duration) error
	SendPasswordChangeConfirmation(ctx context.Context, to string) error
}

// Message is a rendered email ready for delivery
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport delivers a rendered message
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type mailer struct {
	transport   Transport
	templates   map[string]*template.Template
	frontendURL string
	logger      *zap.Logger
}

// New returns an SMTP-backed mailer when credentials are configured and a
// mailer that only logs otherwise.
func New(cfg config.MailConfig, frontendURL string, logger *zap.Logger) (Mailer, error) {
	var transport Transport
	if cfg.Enabled() {
		smtpTransport, err := NewSMTPTransport(cfg)
		if err != nil {
			return nil, err
		}
		transport = smtpTransport
	} else {
		logger.Warn("Mail credentials not configured, emails will only be logged")
		transport = NewLogTransport(logger)
	}
	return NewMailer(transport, frontendURL, logger)
}

// NewMailer builds a Mailer on top of an arbitrary transport
func NewMailer(transport Transport, frontendURL string, logger *zap.Logger) (Mailer, error) {
	parsed, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &mailer{
		transport:   transport,
		templates:   parsed,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}, nil
}

func (m *mailer) send(ctx context.Context, to, subject, templateName string, data any) error {
	html, err := render(m.templates[templateName], data)
	if err != nil {
		return err
	}

	if err := m.transport.Send(ctx, Message{To: to, Subject: subject, HTML: html}); err != nil {
		m.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("template", templateName),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send %s email: %w", templateName, err)
	}

	m.logger.Info("Email sent", zap.String("to", to), zap.String("template", templateName))
	return nil
}

func (m *mailer) SendWelcomeEmail(ctx context.Context, to, name string) error {
	if strings.TrimSpace(name) == "" {
		name = to
	}
	return m.send(ctx, to, SubjectWelcome, "welcome", struct{ Name string }{name})
}

func (m *mailer) SendPasswordResetEmail(ctx context.Context, to, resetToken string, expiresIn time.Duration) error {
	data := struct {
		ResetURL  string
		Token     string
		ExpiresIn string
	}{
		ResetURL:  m.frontendURL + "/reset-password?token=" + url.QueryEscape(resetToken),
		Token:     resetToken,
		ExpiresIn: humanDuration(expiresIn),
	}
	return m.send(ctx, to, SubjectPasswordReset, "password-reset", data)
}

func (m *mailer) SendPasswordChangeConfirmation(ctx context.Context, to string) error {
	return m.send(ctx, to, SubjectPasswordChangeConfirm, "password-change-confirmation", nil)
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
